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

// SQLSuperpowerController is a deliberately disconnected pass-through
// tool (§12): a thin proxy to a local MySQL instance for ad hoc
// SQL-on-dataframes use cases, wired to nothing else in this package.
// None of C1-C9 ever calls it and it never touches a kernel namespace.
package controller

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	_ "github.com/go-sql-driver/mysql"

	"github.com/notebookd/notebookd/pkg/web/model"
)

var (
	sqlOnce sync.Once
	sqlDB   *sql.DB
	sqlErr  error
)

func initSQLDB() (*sql.DB, error) {
	sqlOnce.Do(func() {
		db, err := sql.Open("mysql", "root:@tcp(127.0.0.1:3306)/")
		if err != nil {
			sqlErr = err
			return
		}
		if err := db.Ping(); err != nil {
			sqlErr = err
			return
		}
		if _, err := db.Exec("CREATE DATABASE IF NOT EXISTS sandbox"); err != nil {
			sqlErr = err
			return
		}
		if _, err := db.Exec("USE sandbox"); err != nil {
			sqlErr = err
			return
		}
		sqlDB = db
	})
	if sqlErr != nil {
		return nil, sqlErr
	}
	if sqlDB == nil {
		return nil, errors.New("sql superpower db is not initialized")
	}
	return sqlDB, nil
}

// SQLSuperpowerController implements the SQL superpower's single endpoint.
type SQLSuperpowerController struct {
	*basicController
}

func NewSQLSuperpowerController(ctx *gin.Context) *SQLSuperpowerController {
	return &SQLSuperpowerController{basicController: newBasicController(ctx)}
}

// RunQuery executes a single SQL statement against the local sandbox
// database, dispatching SELECT vs. everything else the same way the
// original SQL runner did.
func (c *SQLSuperpowerController) RunQuery() {
	var req model.RunSQLRequest
	if err := c.bindJSON(&req); err != nil {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, err.Error())
		return
	}

	db, err := initSQLDB()
	if err != nil {
		c.RespondError(http.StatusServiceUnavailable, model.ErrorCodeStorageUnavailable, err.Error())
		return
	}

	ctx := c.ctx.Request.Context()
	if isSelect(req.Query) {
		c.runSelect(ctx, db, req.Query)
		return
	}
	c.runExec(ctx, db, req.Query)
}

func isSelect(query string) bool {
	fields := strings.Fields(query)
	return len(fields) > 0 && strings.EqualFold(fields[0], "SELECT")
}

func (c *SQLSuperpowerController) runSelect(ctx context.Context, db *sql.DB, query string) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		c.RespondError(http.StatusUnprocessableEntity, model.ErrorCodeExecutionFailed, err.Error())
		return
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		c.RespondError(http.StatusUnprocessableEntity, model.ErrorCodeExecutionFailed, err.Error())
		return
	}

	var result [][]any
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			c.RespondError(http.StatusUnprocessableEntity, model.ErrorCodeExecutionFailed, err.Error())
			return
		}
		row := make([]any, len(columns))
		for i, v := range values {
			if v == nil {
				row[i] = nil
			} else {
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		result = append(result, row)
	}
	c.RespondSuccess(model.QueryResult{Columns: columns, Rows: result})
}

func (c *SQLSuperpowerController) runExec(ctx context.Context, db *sql.DB, query string) {
	result, err := db.ExecContext(ctx, query)
	if err != nil {
		c.RespondError(http.StatusUnprocessableEntity, model.ErrorCodeExecutionFailed, err.Error())
		return
	}
	affected, _ := result.RowsAffected()
	c.RespondSuccess(model.QueryResult{Columns: []string{"affected_rows"}, Rows: [][]any{{affected}}})
}
