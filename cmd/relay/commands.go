package main

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"chunk-relay/runtime"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
)

const searchLimit = 50

type command struct {
	usage   string
	minArgs int
	maxArgs int
	// recovery commands deal with held slots themselves.
	recovery bool
	run      func(a *app, ctx context.Context, args []string) (int, error)
}

var commandOrder = []string{"upload", "download", "list", "search", "rename", "delete", "recover", "resolve", "clean", "reindex", "status"}

var commands = map[string]command{
	"upload":   {usage: "<local-file> <logical/path>", minArgs: 2, maxArgs: 2, run: (*app).upload},
	"download": {usage: "<logical/path> [dest-dir]", minArgs: 1, maxArgs: 2, run: (*app).download},
	"list":     {usage: "", run: (*app).list},
	"search":   {usage: "<term>", minArgs: 1, maxArgs: 1, run: (*app).search},
	"rename":   {usage: "<logical/path> <new/logical/path>", minArgs: 2, maxArgs: 2, run: (*app).rename},
	"delete":   {usage: "<logical/path>", minArgs: 1, maxArgs: 1, run: (*app).remove},
	"recover":  {usage: "", recovery: true, run: (*app).recover},
	"resolve":  {usage: "<slot> finish|ignore|delete", minArgs: 2, maxArgs: 2, recovery: true, run: (*app).resolve},
	"clean":    {usage: "", run: (*app).clean},
	"reindex":  {usage: "", run: (*app).reindex},
	"status":   {usage: "", recovery: true, run: (*app).status},
}

type app struct {
	coordinator *runtime.Coordinator
	out         io.Writer
	log         *slog.Logger
}

func (a *app) upload(ctx context.Context, args []string) (int, error) {
	path, err := domain.ParseLogicalPath(args[1])
	if err != nil {
		return exitConfig, err
	}
	return a.transfer(ctx, func(ctx context.Context) (domain.TransferResult, error) {
		return a.coordinator.Upload(ctx, runtime.UploadRequest{LocalPath: args[0], LogicalPath: path})
	})
}

func (a *app) download(ctx context.Context, args []string) (int, error) {
	path, err := domain.ParseLogicalPath(args[0])
	if err != nil {
		return exitConfig, err
	}
	request := runtime.DownloadRequest{LogicalPath: path}
	if len(args) == 2 {
		request.DestinationDir = args[1]
	}
	return a.transfer(ctx, func(ctx context.Context) (domain.TransferResult, error) {
		return a.coordinator.Download(ctx, request)
	})
}

func (a *app) list(_ context.Context, _ []string) (int, error) {
	entries, err := collect(a.coordinator.List())
	if err != nil {
		return exitRuntime, err
	}
	a.renderEntries(entries)
	return exitOK, nil
}

func (a *app) search(ctx context.Context, args []string) (int, error) {
	entries, err := a.coordinator.Search(ctx, args[0], searchLimit)
	if err != nil {
		return exitRuntime, err
	}
	a.renderEntries(entries)
	return exitOK, nil
}

func (a *app) rename(ctx context.Context, args []string) (int, error) {
	from, err := domain.ParseLogicalPath(args[0])
	if err != nil {
		return exitConfig, err
	}
	to, err := domain.ParseLogicalPath(args[1])
	if err != nil {
		return exitConfig, err
	}
	if err := a.coordinator.Rename(ctx, from, to); err != nil {
		return exitRuntime, err
	}
	fmt.Fprintf(a.out, "%s -> %s\n", from, to)
	return exitOK, nil
}

func (a *app) remove(ctx context.Context, args []string) (int, error) {
	path, err := domain.ParseLogicalPath(args[0])
	if err != nil {
		return exitConfig, err
	}
	if err := a.coordinator.Remove(ctx, path); err != nil {
		return exitRuntime, err
	}
	fmt.Fprintf(a.out, "%s deleted\n", path)
	return exitOK, nil
}

func (a *app) recover(_ context.Context, _ []string) (int, error) {
	pending := a.coordinator.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(a.out, "No interrupted transfer")
		return exitOK, nil
	}
	a.renderPending(pending)
	return exitOK, nil
}

func (a *app) resolve(ctx context.Context, args []string) (int, error) {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return exitConfig, fmt.Errorf("slot must be a number, got %q", args[0])
	}
	choice, ok := domain.ParseRecoveryChoice(args[1])
	if !ok {
		return exitConfig, fmt.Errorf("unknown choice %q, want finish, ignore or delete", args[1])
	}
	slot := domain.SlotID(n)

	if choice == domain.Finish {
		return a.transfer(ctx, func(ctx context.Context) (domain.TransferResult, error) {
			return a.coordinator.ResolveRecovery(ctx, slot, choice)
		})
	}
	if _, err := a.coordinator.ResolveRecovery(ctx, slot, choice); err != nil {
		return exitRuntime, err
	}
	fmt.Fprintf(a.out, "slot %d: %s\n", slot, choice)
	return exitOK, nil
}

func (a *app) clean(ctx context.Context, _ []string) (int, error) {
	orphans, err := a.coordinator.CleanOrphans(ctx)
	if err != nil {
		return exitRuntime, err
	}
	fmt.Fprintf(a.out, "%d orphan blob(s) deleted\n", len(orphans))
	return exitOK, nil
}

func (a *app) reindex(ctx context.Context, _ []string) (int, error) {
	if err := a.coordinator.Reindex(ctx); err != nil {
		return exitRuntime, err
	}
	fmt.Fprintln(a.out, "Search index rebuilt")
	return exitOK, nil
}

func (a *app) status(_ context.Context, _ []string) (int, error) {
	a.renderStatus(a.coordinator.Status())
	return exitOK, nil
}

// transfer runs do while rendering progress.
// The first interrupt stops a multi-chunk transfer after its current chunk, the next one aborts it.
func (a *app) transfer(ctx context.Context, do func(ctx context.Context) (domain.TransferResult, error)) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	type outcome struct {
		res domain.TransferResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := do(ctx)
		done <- outcome{res: res, err: err}
	}()

	interrupts := 0
	for {
		select {
		case p := <-a.coordinator.Progress():
			a.renderProgress(p)
		case <-signals:
			interrupts++
			a.interrupt(interrupts, cancel)
		case o := <-done:
			fmt.Fprintln(a.out)
			return a.report(o.res, o.err)
		}
	}
}

// interrupt soft cancels on the first signal when the running transfer allows it.
// Cancelling the context of the request is a hard abort.
func (a *app) interrupt(count int, abort context.CancelFunc) {
	if count == 1 {
		for _, s := range a.coordinator.Status() {
			if s.Transfer != domain.MultiChunk {
				continue
			}
			if err := a.coordinator.Cancel(s.Slot, domain.SoftCancel); err == nil {
				fmt.Fprintln(a.out, color.Yellow.Sprint("\nStopping after the current chunk, interrupt again to abort"))
				return
			}
		}
	}
	fmt.Fprintln(a.out, color.Red.Sprint("\nAborting"))
	abort()
}

func (a *app) report(res domain.TransferResult, err error) (int, error) {
	if err == nil {
		fmt.Fprintf(a.out, "%s %s (%s, %d blob(s))\n", color.Green.Sprint(res.Job.Direction.String()+" completed:"),
			res.Job.LogicalPath, humanize.IBytes(res.Job.TotalSize), len(res.Job.BlobIDs))
		return exitOK, nil
	}
	if errors.Is(err, errors.ErrTransferCancelled) || errors.Is(err, errors.ErrTransferAborted) {
		for _, p := range a.coordinator.Pending() {
			if p.Slot == res.Slot {
				fmt.Fprintf(a.out, "Transfer kept on slot %d, resume it with: relay resolve %d finish\n", res.Slot, res.Slot)
			}
		}
		return exitIncomplete, err
	}
	return exitRuntime, err
}

// warnPending reminds the user of held slots before any other command.
func (a *app) warnPending() {
	pending := a.coordinator.Pending()
	if len(pending) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, color.Yellow.Sprintf("%d interrupted transfer(s) hold a slot, see: relay recover", len(pending)))
}
