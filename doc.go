// Package pulse tails an append-only text log file that grows in place,
// parses each line into a timestamped event through a caller-supplied
// parser, and periodically delivers sliding windows of those events to a
// set of registered "schedules" (reporters / alerters).
//
// # Architecture
//
// Four components, composed leaves-first:
//
//  1. EventCache: a sorted, bounded, thread-safe store of timestamped
//     events with interval fetch and front eviction.
//  2. Tailer: watches a single file, incrementally reads newly appended
//     bytes via a memory-mapped readout, and delegates line parsing to a
//     caller-supplied Parser.
//  3. Dispatcher: maintains schedules ordered by period; on each tick it
//     determines which are ready, queries the cache for each schedule's
//     window, invokes them in ascending-period order, and evicts the
//     cache after the longest-period schedule runs.
//  4. Scheduler: drives the pipeline. It polls an fsnotify watch on the
//     file's parent directory, fans out ingestion work to a dedicated
//     worker, asks the Dispatcher to dispatch, and maintains a
//     drift-compensated ~1s tick cadence.
//
// # Quick start
//
//	tailer := pulse.NewTailer("/var/log/access.log", clf.Parser{})
//	sched, err := pulse.NewScheduler(tailer, pulse.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	sched.Register(myGeneralStatsSchedule)
//	sched.Register(myTrafficGaugeSchedule)
//	if err := sched.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer sched.Stop()
//
// # Soft real-time contract
//
// pulse approximates a one-second application clock: it guarantees every
// parsed event is delivered exactly once to every schedule whose period
// covers it, and that memory usage is bounded by the longest configured
// schedule period. Wall-clock accuracy is best-effort and
// drift-compensated, not NTP-disciplined.
//
// # Concurrency model
//
// Three cooperating workers share the pipeline: the tick loop (owns
// cadence and the fsnotify poll), a single ingestion worker (reads and
// parses file bytes), and a single dispatch worker (invokes schedules in
// ascending-period order and evicts the cache strictly afterward). The
// EventCache is the only state shared across all three; it is guarded by
// a single reader/writer lock.
package pulse
