// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cellforge

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParseJob is one independent unit of work for [ParseAll]: a descriptor
// to instantiate and a buffer to parse it from.
type ParseJob struct {
	Desc   *Descriptor
	Data   []byte
	Offset int
	Opts   []UnpackOption
}

// ParseAll unpacks every job concurrently, each into its own [Cell] tree.
// Per §5, independent parses of disjoint cell trees share no mutable
// state — every job gets a fresh arena via [Empty] — so this is safe with
// no locking beyond what errgroup itself provides; the first job to fail
// cancels ctx and its error is returned once every goroutine has
// returned.
func ParseAll(ctx context.Context, jobs []ParseJob) ([]*Cell, error) {
	results := make([]*Cell, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			cell := Empty(job.Desc)
			if err := cell.Unpack(job.Data, job.Offset, job.Opts...); err != nil {
				return err
			}
			results[i] = cell
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
