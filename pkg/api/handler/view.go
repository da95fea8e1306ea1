package handler

import (
	"html/template"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/capability-tree/pkg/core/engine"
	"github.com/LENAX/capability-tree/pkg/core/graph"
)

// ViewTemplateName 层级视图模板名
const ViewTemplateName = "tree_view.html"

const viewTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Tree.Name}}</title>
<style>
body { font-family: sans-serif; margin: 1.5em; }
.tiers { display: flex; gap: 1em; align-items: flex-start; }
.tier { border: 1px solid #ccc; padding: .5em; min-width: 12em; }
.node { border-radius: 4px; padding: .3em .5em; margin: .3em 0; }
.status-completed { background: #d4edda; }
.status-in_progress { background: #fff3cd; }
.status-planned { background: #e2e3e5; }
.status-blocked { background: #f8d7da; }
.ready { outline: 2px solid #007bff; }
</style>
</head>
<body>
<h1 id="tree-name">{{.Tree.Name}}</h1>
{{with .Tree.Description}}<p class="description">{{.}}</p>{{end}}
<p id="progress" data-percent="{{printf "%.1f" .Progress.Percent}}">
  {{.Progress.CompletedNodes}}/{{.Progress.TotalNodes}} nodes completed,
  {{.Progress.CompletedEffort}}/{{.Progress.TotalEffort}} effort points
</p>
{{if .Tree.Warnings}}
<ul class="warnings">
{{range .Tree.Warnings}}<li class="warning">{{.}}</li>
{{end}}</ul>
{{end}}
<div class="tiers">
{{range .Tiers}}
<section class="tier" data-tier="{{.Tier}}">
<h2>Tier {{.Tier}}</h2>
{{range .Nodes}}
<div class="node status-{{.Status}}{{if index $.Ready .ID}} ready{{end}}" data-id="{{.ID}}" data-status="{{.Status}}">
<strong>{{.Name}}</strong>
{{if .EffortPoints}}<span class="effort">{{.Effort}} pts</span>{{end}}
{{if .Prerequisites}}<div class="prereqs">requires: {{range $i, $p := .Prerequisites}}{{if $i}}, {{end}}{{$p}}{{end}}</div>{{end}}
{{with .BlockedReason}}<div class="blocked-reason">{{.}}</div>{{end}}
</div>
{{end}}
</section>
{{end}}
</div>
</body>
</html>
`

// ViewTemplate 解析层级视图模板
func ViewTemplate() *template.Template {
	return template.Must(template.New(ViewTemplateName).Parse(viewTemplate))
}

// tierColumn 一列层级
type tierColumn struct {
	Tier  int
	Nodes []*graph.ComputedNode
}

// ViewHandler 服务端渲染的层级视图
type ViewHandler struct {
	engine *engine.Engine
}

// NewViewHandler 创建ViewHandler
func NewViewHandler(eng *engine.Engine) *ViewHandler {
	return &ViewHandler{engine: eng}
}

// View 按层级分列展示节点
// GET /api/v1/trees/:id/view
func (h *ViewHandler) View(c *gin.Context) {
	ct, err := h.engine.GetComputed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	tiers := make([]int, 0, len(ct.Tiers))
	for tier := range ct.Tiers {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)

	columns := make([]tierColumn, 0, len(tiers))
	for _, tier := range tiers {
		columns = append(columns, tierColumn{Tier: tier, Nodes: ct.Tiers[tier]})
	}

	ready := make(map[string]bool)
	for _, n := range ct.ReadyNodes() {
		ready[n.ID] = true
	}

	c.HTML(http.StatusOK, ViewTemplateName, gin.H{
		"Tree":     ct,
		"Tiers":    columns,
		"Progress": ct.Progress(),
		"Ready":    ready,
	})
}
