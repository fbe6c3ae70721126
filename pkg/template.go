package pkg

const tmplEdge = `{{define "edge" -}}
    {{printf "%s" .}}
{{- end}}`

const tmplNode = `{{define "node" -}}
    {{printf "%s" .}}
{{- end}}`

const tmplGraph = `digraph pswatch {
    label="{{.Title}}";
    labeljust="l";
    fontname="Arial";
    fontsize="14";
    rankdir="TB";
    bgcolor="white";
    pad="0.2";
    overlap="true";
    splines="true";
    node [shape="record" style="filled" fontname="Consolas" fontsize="8" margin="0.05,0.0"];
    edge [arrowsize="0.6"];
	{{range .Nodes}}
	{{template "node" .}}
	{{- end}}
    {{- range .Edges}}
    {{template "edge" .}}
    {{- end}}
}`
