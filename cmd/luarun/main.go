package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/lua-runtime/engine"
	"github.com/wippyai/lua-runtime/profiler"
	"github.com/wippyai/lua-runtime/runtime"
	"github.com/wippyai/lua-runtime/scripthost"
)

func main() {
	var (
		script      = flag.String("script", "", "Script file to load")
		dir         = flag.String("dir", ".", "Host script directory")
		sysDir      = flag.String("sys", "", "System script directory (fallback)")
		baseURL     = flag.String("url", "", "Remote script base URL (replaces -dir)")
		cachePath   = flag.String("cache", "scripts.cache", "Response cache for -url")
		resource    = flag.String("resource", "", "Resource name (defaults from collaborator)")
		ticks       = flag.Int("ticks", 0, "Number of ticks to drive after loading")
		rate        = flag.Duration("rate", 16*time.Millisecond, "Tick interval")
		call        = flag.String("call", "", "Global function to call (args from remaining argv)")
		profile     = flag.Bool("profile", false, "Profile the tick run")
		tracePath   = flag.String("trace", "", "Write the profiling trace to this file")
		listen      = flag.String("listen", "", "Serve debug events over websocket at this address")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *script == "" {
		fmt.Fprintln(os.Stderr, "Usage: luarun -script <file.lua> [-dir scripts] [-sys system] [-ticks n]")
		fmt.Fprintln(os.Stderr, "       luarun -script <file.lua> -call <func> [args...]")
		fmt.Fprintln(os.Stderr, "       luarun -script <file.lua> -i  (interactive mode)")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		engine.SetLogger(log)
	}

	cfg := runtime.Config{
		Resource: *resource,
		Logger:   log,
	}
	if *baseURL != "" {
		wc, err := scripthost.NewWebCache(*resource, *baseURL, *cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer wc.Close()
		cfg.Files = wc
	} else {
		cfg.Files = scripthost.NewDir(*resource, *dir)
	}
	if *sysDir != "" {
		cfg.System = scripthost.NewDir("system", *sysDir)
	}

	if *interactive {
		if err := runInteractive(cfg, *script); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *script, *call, flag.Args(), *ticks, *rate, *profile, *tracePath, *listen); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg runtime.Config, script, call string, callArgs []string, ticks int, rate time.Duration, profile bool, tracePath, listen string) error {
	inst, err := runtime.New(cfg)
	if err != nil {
		return err
	}
	defer inst.Close()

	if listen != "" {
		stream := profiler.NewEventStream(cfg.Logger)
		inst.SetDebugListener(stream)
		go func() {
			if err := http.ListenAndServe(listen, stream); err != nil {
				fmt.Fprintf(os.Stderr, "event stream: %v\n", err)
			}
		}()
		fmt.Printf("Debug events at ws://%s\n", listen)
	}

	fmt.Printf("Loading %s (resource %q, instance %d)\n", script, inst.ResourceName(), inst.ID())
	if err := inst.LoadFile(script); err != nil {
		return err
	}

	if call != "" {
		result, err := inst.Call(call, callArgs...)
		if err != nil {
			return err
		}
		fmt.Printf("Result: %s\n", result)
	}

	if ticks > 0 {
		if profile {
			inst.ProfilerTick(true)
		}
		for n := 0; n < ticks; n++ {
			inst.Tick(time.Now())
			time.Sleep(rate)
		}
		if profile {
			inst.ProfilerTick(false)
			if trace := inst.Profiler().LastTrace(); trace != nil {
				fmt.Printf("Profiled %d events over %d ticks\n", len(trace.Events), ticks)
				if tracePath != "" {
					if err := saveTrace(trace, tracePath); err != nil {
						return err
					}
					fmt.Printf("Trace written to %s\n", tracePath)
				}
			}
		}
	}

	mi := inst.MemoryInfo()
	fmt.Printf("Refs: %d, pending bookmarks: %d, heap: %d bytes\n",
		mi.Refs, mi.PendingBookmarks, mi.HeapBytes)
	return nil
}

func saveTrace(trace *profiler.Trace, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
