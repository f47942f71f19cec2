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

package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notebookd/notebookd/pkg/asset"
	"github.com/notebookd/notebookd/pkg/web/model"
)

// AssetController implements §6.1's Assets operation group.
type AssetController struct {
	*basicController
}

func NewAssetController(ctx *gin.Context) *AssetController {
	return &AssetController{basicController: newBasicController(ctx)}
}

// ReadAsset implements read_asset: mode/range/search/head/tail reads over
// an offloaded output asset (§4.3).
func (c *AssetController) ReadAsset() {
	assetPath := c.ctx.Query("path")
	if assetPath == "" {
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidInput, "path is required")
		return
	}
	if !c.requirePath(assetPath) {
		return
	}
	mode := c.ctx.Query("mode")
	if mode == "" {
		mode = string(asset.ReadModeFull)
	}
	req := asset.ReadRequest{
		Mode:      asset.ReadMode(mode),
		StartLine: c.queryInt("start_line", 0),
		EndLine:   c.queryInt("end_line", 0),
		Search:    c.ctx.Query("search"),
		Lines:     c.queryInt("lines", 0),
	}
	result, err := deps.Assets.Read(assetPath, req)
	if err != nil {
		c.RespondErrTax(err)
		return
	}
	c.RespondSuccess(result)
}

// PruneUnusedAssets implements prune_unused_assets: runs the same
// expiry-driven GC pass the background loop runs, on demand. An optional
// comma-separated "patterns" query parameter of doublestar globs scopes
// the sweep to matching asset paths instead of every expired lease.
func (c *AssetController) PruneUnusedAssets() {
	var patterns []string
	if raw := c.ctx.Query("patterns"); raw != "" {
		patterns = strings.Split(raw, ",")
	}
	deleted, renewed := deps.Assets.GCExpired(time.Now(), deps.Notebooks, patterns)
	c.RespondSuccess(gin.H{"deleted": deleted, "renewed": renewed})
}
