// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package hashwheel provides an approximate, hashed-wheel timer for
// scheduling large numbers of delayed and recurring tasks with O(1)
// amortized submission, cancellation, and per-tick dispatch.
//
// It is built for coarse-grained timeouts — connection deadlines,
// retry windows, heartbeats, eviction deadlines — where the per-timer
// cost of a heap-based scheduler dominates. Accuracy is bounded by one
// tick interval; the wheel is a dispatcher, not a high-precision clock.
//
// # Concurrency
//
// A single driver goroutine owns tick advancement. Submission and
// cancellation proceed concurrently with the driver; user tasks may
// run in parallel, bounded per bucket per tick by
// WithMaxParallelExpirations.
//
// # Example
//
//	tm, err := hashwheel.New(hashwheel.WithTickInterval(100 * time.Millisecond))
//	if err != nil {
//		panic(err)
//	}
//	go tm.Run(ctx)
//	h, err := tm.Submit(myTask, 2*time.Second, 0)
package hashwheel
