package catalog

import "github.com/koustreak/ddrlens/internal/xmltree"

// stepRefs are the references found anywhere inside one step.
type stepRefs struct {
	fields, layouts, scripts []Record
	sk                       *skips
}

// extractScripts reads the top-level scripts of File/ScriptCatalog, their
// steps, and every field, layout and script each step references.
func extractScripts(file xmltree.Node, sk *skips) (recordSets, error) {
	cat, err := mustChild(file, "ScriptCatalog")
	if err != nil {
		return nil, err
	}

	var scripts, steps, fields, layouts, subs []Record
	for _, s := range cat.Descendants("Script") {
		if !topLevel(s, "ScriptCatalog") {
			continue
		}
		script := Build(s, KindScript)
		scripts = append(scripts, script)

		for _, st := range s.Children("StepList/Step") {
			step := Build(st, KindStep).Inherit(script)
			steps = append(steps, step)

			refs := stepRefs{sk: sk}
			refs.visit(st, step)
			fields = append(fields, refs.fields...)
			layouts = append(layouts, refs.layouts...)
			subs = append(subs, refs.scripts...)
		}
	}

	return recordSets{
		TableScripts:       scripts,
		TableScriptSteps:   steps,
		TableScriptFields:  fields,
		TableScriptLayouts: layouts,
		TableScriptScripts: subs,
	}, nil
}

// visit walks n's subtree depth-first. A Field, Layout or Script element is
// a reference and the walk does not descend into it.
func (r *stepRefs) visit(n xmltree.Node, step Record) {
	for _, c := range n.Elements() {
		switch c.Tag() {
		case "Field":
			r.fields = append(r.fields, Build(c, KindStepField).Inherit(step))
		case "Layout":
			attrs := c.Attrs()
			if len(attrs) == 0 {
				// "no layout specified" placeholder
				r.sk.add("layout reference without attributes", step)
				continue
			}
			layout := BuildAttrs(attrs, KindStepLayout)
			// a layout of another file is qualified by a sibling Table
			if table, ok := n.Child("Table"); ok {
				layout = Build(table, KindStepLayoutTable).Inherit(layout)
			}
			r.layouts = append(r.layouts, layout.Inherit(step))
		case "Script":
			r.scripts = append(r.scripts, Build(c, KindStepScript).Inherit(step))
		default:
			r.visit(c, step)
		}
	}
}
