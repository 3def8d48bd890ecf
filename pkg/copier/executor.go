// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package copier

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// 🧾 Job is one physical write
type Job struct {
	SourcePath      string // plain file, or the archive holding Member
	Member          string // member name inside the archive
	FinalPath       string // already conflict-resolved
	IsArchiveMember bool
}

// 📊 Result is the outcome of one Job
type Result struct {
	Job      Job
	Written  Written
	Duration time.Duration
	Err      error
}

// OK reports whether the job wrote its final path
func (r Result) OK() bool {
	return r.Err == nil
}

// 🏃 Execute runs jobs with at most concurrency in flight and returns exactly one
// result per job, in job order. A failing job never cancels the others.
func Execute(ctx context.Context, jobs []Job, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("jobs", len(jobs)).Int("concurrency", concurrency).Msg("executing copy jobs")

	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = run(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func run(ctx context.Context, job Job) Result {
	start := time.Now()
	var (
		w   Written
		err error
	)
	if job.IsArchiveMember {
		w, err = ExtractMember(ctx, job.SourcePath, job.Member, job.FinalPath)
	} else {
		w, err = CopyFile(ctx, job.SourcePath, job.FinalPath)
	}

	res := Result{Job: job, Written: w, Duration: time.Since(start), Err: err}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("src", job.SourcePath).Str("dst", job.FinalPath).Msg("copy job failed")
	}
	return res
}
