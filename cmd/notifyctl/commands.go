package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifykit/pkg/events"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
	"github.com/dmitrymomot/notifykit/pkg/realtime"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errMissingArg     = errors.New("missing argument")
)

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "watch":
		return a.watch(ctx)
	case "list":
		page := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("%w: %q", notifications.ErrInvalidPage, args[0])
			}
			page = n
		}
		return a.list(ctx, page)
	case "read":
		id, err := firstArg(args, "id")
		if err != nil {
			return err
		}
		n, err := a.gw.MarkAsRead(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "marked %s as read\n", n.ID)
		return nil
	case "read-all":
		count, err := a.gw.MarkAllAsRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "marked %d notifications as read\n", count)
		return nil
	case "delete":
		id, err := firstArg(args, "id")
		if err != nil {
			return err
		}
		if err := a.gw.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted %s\n", id)
		return nil
	case "delete-read":
		res, err := a.gw.DeleteRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "deleted %d read notifications\n", res.Count)
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
}

func firstArg(args []string, name string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", fmt.Errorf("%w: %s", errMissingArg, name)
	}
	return args[0], nil
}

func (a *app) list(ctx context.Context, page int) error {
	p, err := a.gw.List(ctx, page, a.cfg.PageSize)
	if err != nil {
		return err
	}
	pr := newPrinter(a.out)
	for _, n := range p.Notifications {
		pr.notification(n)
	}
	pr.linef("page %d/%d, %d total", p.CurrentPage, p.TotalPages, p.TotalNotifications)
	return nil
}

// watch keeps a live connection open and prints the read model until ctx ends.
func (a *app) watch(ctx context.Context) error {
	rt := realtime.New(a.cfg.WSURL, a.tokens,
		realtime.WithLogger(a.log),
		realtime.WithBackoff(realtime.ExponentialBackoff{
			Initial:    a.cfg.ReconnectBase,
			Max:        a.cfg.ReconnectMax,
			Multiplier: 2,
		}),
		realtime.WithMaxReconnectAttempts(a.cfg.ReconnectAttempts),
		realtime.WithHeartbeat(a.cfg.Heartbeat),
	)
	defer rt.Disconnect()

	store := notifications.NewStore(a.gw,
		notifications.WithLogger(a.log),
		notifications.WithPageSize(a.cfg.PageSize),
	)
	defer func() { _ = store.Close() }()

	detach := store.Attach(rt)
	defer detach()

	rt.Subscribe(events.TypeReconnecting, func(_ context.Context, ev events.Event) {
		var info realtime.ReconnectInfo
		if err := ev.Decode(&info); err == nil {
			a.log.InfoContext(ctx, "reconnecting", logger.Attempt(info.Attempt), logger.Delay(info.Delay))
		}
	})
	rt.Subscribe(events.TypeConnect, func(ctx context.Context, _ events.Event) {
		a.log.InfoContext(ctx, "connected")
		// pushes may have been missed while offline
		if _, err := store.RefreshUnreadCount(ctx); err != nil {
			a.log.WarnContext(ctx, "refresh unread count", logger.Error(err))
		}
	})

	pr := newPrinter(a.out)
	g, ctx := errgroup.WithContext(ctx)

	toasts := store.Toasts(ctx)
	snapshots := store.Subscribe(ctx)
	g.Go(func() error {
		for msg := range toasts.Receive(ctx) {
			pr.toast(msg.Data)
		}
		return nil
	})
	g.Go(func() error {
		for msg := range snapshots.Receive(ctx) {
			pr.badges(msg.Data)
		}
		return nil
	})

	rt.Connect(ctx)

	// the unread count is learned relative to the loaded first page
	g.Go(func() error {
		if err := store.FetchPage(ctx, 1); err != nil {
			a.log.WarnContext(ctx, "initial fetch failed", logger.Error(err))
		}
		if _, err := store.RefreshUnreadCount(ctx); err != nil {
			a.log.WarnContext(ctx, "unread count failed", logger.Error(err))
		}
		return nil
	})

	<-ctx.Done()
	rt.Disconnect()
	_ = store.Close()
	return g.Wait()
}
