/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tiles splits a composite canvas into printable page tiles.
//
// BoundingBox reduces a set of placements to one enclosing rectangle and
// ComputeGrid finds the smallest across×down grid of pages that covers it.
// Every length is in the page setup's unit; nothing is rounded. Tile counts are
// found by an incremental search, one tile at a time, and the grid is centred
// on the bounding box so unused page area is split evenly on both sides.
//
// Counts reports the number of pages for both page orientations so callers can
// print in whichever orientation needs fewer sheets.
package tiles
