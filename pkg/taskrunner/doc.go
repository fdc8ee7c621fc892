// Package taskrunner hosts the shared abstractions for planning and executing
// relpipe task pipelines. It exposes the `Executor` interface plus helpers
// (`Factory`, `Resolve`, `BuildDependencies`) so CLI packages can inject
// pipeline.Dependencies once and obtain a runner, while unit tests can swap in
// fakes. This keeps orchestration logic in `internal/pipeline` reusable without
// wiring duplication.
package taskrunner
