package pipeline

// ProgressFunc reports a pipeline's progress through its phases, in
// percent complete, supplementing the original implementation's
// progress_callback hook (original_source/author_date_engine.py threads
// one through every phase). It is optional: a pipeline with none
// configured via SetProgress simply skips reporting.
type ProgressFunc func(stage string, pct int)

func report(fn ProgressFunc, stage string, pct int) {
	if fn != nil {
		fn(stage, pct)
	}
}
