// Package liveagent keeps a page in sync with a live-reload development
// server.
//
// An Agent loads the page, holds the server's live channel open and, on
// every change notice, probes the page with the reload query until the
// response carries the reload marker. It then either swaps the live head and
// body in place and restores scroll positions (soft mode) or re-fetches the
// whole document (hard mode).
//
// # Basic Usage
//
//	cfg := liveagent.Config{
//	    PageURL: "http://localhost:8080/",
//	}
//
//	agent, err := liveagent.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := agent.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := agent.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Only PageURL is required. All other fields have defaults set via
// [Config.SetDefaults]. The live channel is dialed at ChannelPath on the
// page's host, over wss when the page is served over https.
//
// # Event Handling
//
// Implement [EventHandler], or embed [BaseEventHandler], and pass it via
// [WithEventHandler]. Events are called synchronously from agent goroutines.
//
// # Dependency Injection
//
// For testing, inject the page, channel dialer, HTTP client or session store:
//
//	agent, err := liveagent.New(cfg,
//	    liveagent.WithHTTPClient(client),
//	    liveagent.WithDialer(dialer),
//	)
//
// # Lifecycle States
//
// An Agent is in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Agent.Status] to
// query the current state.
//
// # Plugins
//
// Plugins receive a Trigger that requests a reload exactly like a change
// notice on the live channel:
//
//	import "github.com/bft-labs/liveagent/plugins/filewatch"
//
//	agent, err := liveagent.New(cfg,
//	    filewatch.WithFileWatch(filewatch.Config{Dir: "./site"}),
//	)
package liveagent
