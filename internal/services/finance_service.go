package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Publisher announces committed writes to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt *amqp.ChangeEvent) error
}

// FinanceService orchestrates storage, the aggregation pipeline and change
// events for the HTTP layer.
type FinanceService struct {
	transactions storage.TransactionStore
	budgets      storage.BudgetStore
	registry     *core.Registry
	publisher    Publisher
	newID        func() string
}

// NewFinanceService wires the service. publisher may be nil, in which case
// writes are not announced.
func NewFinanceService(tx storage.TransactionStore, budgets storage.BudgetStore, reg *core.Registry, publisher Publisher) *FinanceService {
	if reg == nil {
		reg = core.DefaultRegistry()
	}
	return &FinanceService{
		transactions: tx,
		budgets:      budgets,
		registry:     reg,
		publisher:    publisher,
		newID:        uuid.NewString,
	}
}

// Registry returns the category registry in use.
func (s *FinanceService) Registry() *core.Registry {
	return s.registry
}

// Dashboard is the full pipeline output for one month.
type Dashboard struct {
	Month    core.Month     `json:"month"`
	AllTime  Summary        `json:"allTime"`
	Current  Summary        `json:"current"`
	Previous Summary        `json:"previous"`
	Budgets  []BudgetStatus `json:"budgets"`
	Insights []string       `json:"insights"`
}

func (s *FinanceService) ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.transactions.FindTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	for i := range txs {
		txs[i] = txs[i].WithDefaults()
	}
	return txs, nil
}

func (s *FinanceService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return t.WithDefaults(), nil
}

// CreateTransaction validates, stores and announces a new record.
func (s *FinanceService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if err := t.Validate(s.registry); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.newID()

	if err := s.transactions.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"type", t.Type,
		"category", t.Category,
		"recurring", t.Recurring)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionCreated, t.ID))
	return t, nil
}

// UpdateTransaction replaces the record with the given id. The id itself
// never changes.
func (s *FinanceService) UpdateTransaction(ctx context.Context, id string, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if err := t.Validate(s.registry); err != nil {
		return core.Transaction{}, err
	}
	t.ID = id

	if err := s.transactions.UpdateTransaction(ctx, id, t); err != nil {
		return core.Transaction{}, wrapStoreErr("update transaction", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionUpdated, id))
	return t, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.transactions.DeleteTransaction(ctx, id); err != nil {
		return wrapStoreErr("delete transaction", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.ActionDeleted, id))
	return nil
}

// MonthTransactions returns the materialised occurrences of one month.
func (s *FinanceService) MonthTransactions(ctx context.Context, month core.Month, f storage.TransactionFilter) ([]Occurrence, error) {
	txs, err := s.transactions.FindTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	return Occurrences(txs, MonthPeriod(month)), nil
}

func (s *FinanceService) ListBudgets(ctx context.Context, month core.Month) ([]core.Budget, error) {
	budgets, err := s.budgets.FindBudgets(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("find budgets: %w", err)
	}
	return budgets, nil
}

// UpsertBudget creates or replaces the budget for (category, month).
func (s *FinanceService) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(s.registry); err != nil {
		return core.Budget{}, err
	}
	if err := s.budgets.UpsertBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"category", b.Category,
		"month", b.Month.String(),
		"amount", b.Amount.String())
	s.publish(ctx, amqp.NewBudgetEvent(b.Category, b.Month.String()))
	return b, nil
}

// Summaries returns the all-time summary through month and the summary of
// month itself from a single transactions read.
func (s *FinanceService) Summaries(ctx context.Context, month core.Month) (allTime, current Summary, err error) {
	txs, err := s.transactions.FindTransactions(ctx, storage.TransactionFilter{})
	if err != nil {
		return Summary{}, Summary{}, fmt.Errorf("find transactions: %w", err)
	}
	return Aggregate(txs, AllTimeThrough(month), s.registry), Aggregate(txs, MonthPeriod(month), s.registry), nil
}

// Dashboard runs the whole pipeline for month: the two storage reads run
// concurrently, everything after them is pure computation.
func (s *FinanceService) Dashboard(ctx context.Context, month core.Month) (Dashboard, error) {
	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = s.transactions.FindTransactions(gctx, storage.TransactionFilter{}); err != nil {
			return fmt.Errorf("find transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if budgets, err = s.budgets.FindBudgets(gctx, month); err != nil {
			return fmt.Errorf("find budgets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	return BuildDashboard(month, txs, budgets, s.registry), nil
}

// BuildDashboard is the pure part of the pipeline.
func BuildDashboard(month core.Month, txs []core.Transaction, budgets []core.Budget, reg *core.Registry) Dashboard {
	current := Aggregate(txs, MonthPeriod(month), reg)
	previous := Aggregate(txs, MonthPeriod(month.Prev()), reg)
	actuals := current.CategoryAmounts()
	statuses := CompareBudgets(month, budgets, actuals, reg)

	return Dashboard{
		Month:    month,
		AllTime:  Aggregate(txs, AllTimeThrough(month), reg),
		Current:  current,
		Previous: previous,
		Budgets:  statuses,
		Insights: GenerateInsights(actuals, previous.CategoryAmounts(),
			current.NetSavings, previous.NetSavings, statuses, reg),
	}
}

func (s *FinanceService) publish(ctx context.Context, evt *amqp.ChangeEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping change event",
			"entity", evt.Entity, "action", evt.Action)
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		// The write is committed; the mirror catches up on the next event.
		slog.ErrorContext(ctx, "Failed to publish change event",
			"entity", evt.Entity,
			"action", evt.Action,
			"id", evt.ID,
			"error", err)
	}
}

// wrapStoreErr keeps core.ErrNotFound matchable while adding context.
func wrapStoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
