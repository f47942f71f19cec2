// Copyright 2025 Alibaba Group Holding Ltd.
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

package model

import "github.com/go-playground/validator/v10"

// RunSQLRequest is the body of the SQL superpower's query endpoint. This
// operation group is deliberately disconnected from the notebook/kernel
// pipeline (§12): it talks straight to a local MySQL instance, not to any
// kernel namespace.
type RunSQLRequest struct {
	Query string `json:"query" validate:"required"`
}

func (r *RunSQLRequest) Validate() error {
	return validator.New().Struct(r)
}

// QueryResult is a SQL query's wire response.
type QueryResult struct {
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
}
