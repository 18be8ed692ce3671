// Package gocommand mounts the innovate facade on the go-command registry
// and its process-wide dispatcher.
package gocommand

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	innovate "github.com/innovatetogether/go-innovate"
	innovatecommand "github.com/innovatetogether/go-innovate/command"
	"github.com/innovatetogether/go-innovate/core"
	innovatequery "github.com/innovatetogether/go-innovate/query"
)

// Bus owns the dispatcher subscriptions of one mounted facade. The
// dispatcher is global, so a Bus must be closed before another facade is
// mounted for the same message types.
type Bus struct {
	registry   *command.Registry
	runnerOpts []runner.Option

	mu            sync.Mutex
	subscriptions []commanddispatcher.Subscription
}

func NewBus(registry *command.Registry, runnerOpts ...runner.Option) *Bus {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &Bus{registry: registry, runnerOpts: runnerOpts}
}

func (b *Bus) Registry() *command.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// Subscriptions reports how many handlers are currently subscribed.
func (b *Bus) Subscriptions() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscriptions)
}

// Mount registers and subscribes every facade command and query. When any
// handler fails to register, the ones already subscribed are released.
func (b *Bus) Mount(facade *innovate.Facade) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: bus is not configured")
	}
	if facade == nil {
		return fmt.Errorf("gocommand: facade is required")
	}
	commands := facade.Commands()
	queries := facade.Queries()

	b.mu.Lock()
	defer b.mu.Unlock()
	mark := len(b.subscriptions)
	err := firstError(
		mountCommand[innovatecommand.SetAbsoluteProfileURLMessage](b, commands.SetAbsoluteProfileURL),
		mountCommand[innovatecommand.ClearAbsoluteProfileURLMessage](b, commands.ClearAbsoluteProfileURL),
		mountCommand[innovatecommand.SetOverrideSubjectIDMessage](b, commands.SetOverrideSubjectID),
		mountCommand[innovatecommand.ClearOverrideSubjectIDMessage](b, commands.ClearOverrideSubjectID),
		mountCommand[innovatecommand.SetProfileByIDMessage](b, commands.SetProfileByID),
		mountCommand[innovatecommand.ApplyDevDefaultsMessage](b, commands.ApplyDevDefaults),
		mountQuery[innovatequery.ResolveProfileMessage, core.ResolutionResult](b, queries.ResolveProfile),
		mountQuery[innovatequery.PreferenceStatusMessage, core.PreferenceStatus](b, queries.PreferenceStatus),
	)
	if err != nil {
		unsubscribeAll(b.subscriptions[mark:])
		b.subscriptions = b.subscriptions[:mark]
		return err
	}
	return nil
}

// Close releases every subscription. It is safe to call more than once.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	subscriptions := b.subscriptions
	b.subscriptions = nil
	b.mu.Unlock()
	unsubscribeAll(subscriptions)
}

// mountCommand returns a step so Mount can stop at the first failure. Callers
// hold b.mu.
func mountCommand[T any](b *Bus, cmd command.Commander[T]) func() error {
	return func() error {
		if cmd == nil {
			return fmt.Errorf("gocommand: command handler is required")
		}
		subscription := commanddispatcher.SubscribeCommand(cmd, b.runnerOpts...)
		if err := b.registry.RegisterCommand(cmd); err != nil {
			unsubscribeAll([]commanddispatcher.Subscription{subscription})
			return fmt.Errorf("gocommand: register command: %w", err)
		}
		b.subscriptions = append(b.subscriptions, subscription)
		return nil
	}
}

func mountQuery[T any, R any](b *Bus, qry command.Querier[T, R]) func() error {
	return func() error {
		if qry == nil {
			return fmt.Errorf("gocommand: query handler is required")
		}
		subscription := commanddispatcher.SubscribeQuery(qry, b.runnerOpts...)
		if err := b.registry.RegisterCommand(qry); err != nil {
			unsubscribeAll([]commanddispatcher.Subscription{subscription})
			return fmt.Errorf("gocommand: register query: %w", err)
		}
		b.subscriptions = append(b.subscriptions, subscription)
		return nil
	}
}

func firstError(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func unsubscribeAll(subscriptions []commanddispatcher.Subscription) {
	for _, subscription := range subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// Dispatch sends a command message to its subscribed handler.
func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

// Query sends a query message and returns the handler's result.
func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}
