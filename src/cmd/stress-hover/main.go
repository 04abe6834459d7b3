package main

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"hover-confirm/src/dispatch"
	"hover-confirm/src/eventloop"
	"hover-confirm/src/hover"
	"hover-confirm/src/logutil"
	"hover-confirm/src/pointer"
	"hover-confirm/src/zones"
)

type stressOptions struct {
	n        int
	mode     string
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-hover",
		Short:         "Stress the hover event loop with synthetic pointer traffic",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := runWithOptions(*opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.String())
			if s.violations > 0 {
				return fmt.Errorf("%d single-affordance violations", s.violations)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of concurrent API clients")
	cmd.Flags().StringVar(&opts.mode, "mode", "mixed", "click|reload|mixed: which API calls the clients issue")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "how long to run")

	return cmd
}

// walkSource jumps the pointer between random points of a 400x100 strip.
type walkSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (w *walkSource) Open() error  { return nil }
func (w *walkSource) Close() error { return nil }

func (w *walkSource) Position() (image.Point, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return image.Pt(w.rng.Intn(400), w.rng.Intn(100)), nil
}

var stressZones = []zones.Definition{
	{ID: "a", ActionID: "act-a", Enabled: true, Rects: []image.Rectangle{image.Rect(0, 0, 100, 50)}},
	{ID: "b", ActionID: "act-b", Enabled: true, Rects: []image.Rectangle{image.Rect(100, 0, 200, 50)}},
	{ID: "c", ActionID: "act-c", Enabled: true, Priority: -1, Rects: []image.Rectangle{image.Rect(50, 25, 150, 75)}},
}

type summary struct {
	shows, hides, actions         int64
	dispatched, rejected, reloads int64
	violations                    int64
	elapsed                       time.Duration
}

func (s *summary) String() string {
	return fmt.Sprintf("shows=%d hides=%d actions=%d dispatched=%d rejected=%d reloads=%d violations=%d elapsed=%s",
		s.shows, s.hides, s.actions, s.dispatched, s.rejected, s.reloads, s.violations, s.elapsed)
}

func runWithOptions(opts stressOptions) (*summary, error) {
	switch opts.mode {
	case "click", "reload", "mixed":
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
	closeLog := logutil.Setup(logutil.Options{Quiet: true})
	defer closeLog()

	var (
		s     summary
		shown atomic.Value // string
	)
	shown.Store("")

	src := &walkSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	loop := eventloop.New(eventloop.Options{
		Hover:          hover.Config{EnterDelay: 5 * time.Millisecond, AutoHide: 20 * time.Millisecond, Continuation: 10 * time.Millisecond},
		SampleInterval: time.Millisecond,
		Cooldown:       15 * time.Millisecond,
		ActionWorkers:  2,
		Enabled:        true,
		NewSource:      func() (pointer.Source, error) { return src, nil },
		Zones:          stressZones,
		OnAction:       func(context.Context, string) { atomic.AddInt64(&s.actions, 1) },
		OnAffordance: func(e hover.Event) {
			// runs on the loop goroutine only
			cur := shown.Load().(string)
			switch e.Kind {
			case hover.Show:
				atomic.AddInt64(&s.shows, 1)
				if cur != "" {
					atomic.AddInt64(&s.violations, 1)
				}
				shown.Store(e.ZoneID)
			case hover.Hide:
				atomic.AddInt64(&s.hides, 1)
				shown.Store("")
			}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
	defer cancel()
	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(context.Background()) }()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for ctx.Err() == nil {
				doReload := opts.mode == "reload" || (opts.mode == "mixed" && rng.Intn(20) == 0)
				if doReload {
					loop.Reload(stressZones)
					atomic.AddInt64(&s.reloads, 1)
				} else {
					res := loop.Click(shown.Load().(string))
					if res.Outcome == dispatch.Dispatched {
						atomic.AddInt64(&s.dispatched, 1)
					} else {
						atomic.AddInt64(&s.rejected, 1)
					}
				}
				time.Sleep(time.Duration(rng.Intn(5)) * time.Millisecond)
			}
		}(int64(i))
	}
	wg.Wait()
	s.elapsed = time.Since(start)

	if err := loop.Shutdown(2 * time.Second); err != nil {
		return &s, err
	}
	if err := <-loopErr; err != nil {
		return &s, err
	}
	return &s, nil
}
