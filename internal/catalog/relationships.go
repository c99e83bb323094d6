package catalog

import (
	"github.com/koustreak/ddrlens/internal/errs"
	"github.com/koustreak/ddrlens/internal/xmltree"
)

// extractRelationshipGraph reads the table occurrences and relationships of
// File/RelationshipGraph.
func extractRelationshipGraph(file xmltree.Node, _ *skips) (recordSets, error) {
	tableList, err := mustChild(file, "RelationshipGraph/TableList")
	if err != nil {
		return nil, err
	}
	relList, err := mustChild(file, "RelationshipGraph/RelationshipList")
	if err != nil {
		return nil, err
	}

	var tables []Record
	for _, t := range tableList.Children("Table") {
		table := Build(t, KindTable)
		if ext, ok := t.Child("FileReference"); ok {
			table = Build(ext, KindExternalFile).Inherit(table)
		}
		tables = append(tables, table)
	}

	var rels, joins []Record
	for _, r := range relList.Children("Relationship") {
		rel, preds, err := relationship(r)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
		joins = append(joins, preds...)
	}

	return recordSets{
		TableTables:        tables,
		TableRelationships: rels,
		TableFieldJoins:    joins,
	}, nil
}

// relationship reads one Relationship element. Its first two children are
// the left and right table references, in that order.
func relationship(r xmltree.Node) (Record, []Record, error) {
	rel := Build(r, KindRelationship)

	sides := r.Elements()
	if len(sides) < 2 {
		return nil, nil, errs.Newf(errs.ErrKindStructural,
			"relationship %s has %d table references, want 2", rel["relationship_id"], len(sides))
	}
	left, _ := sides[0].Attr("name")
	right, _ := sides[1].Attr("name")
	if left == "" || right == "" {
		return nil, nil, errs.Newf(errs.ErrKindStructural,
			"relationship %s: table reference without a name", rel["relationship_id"])
	}
	rel = rel.With("left_table_name", left).With("right_table_name", right)

	var joins []Record
	for _, p := range r.Children("JoinPredicateList/JoinPredicate") {
		pred := Build(p, KindJoinPredicate).Inherit(rel)
		for _, side := range p.Elements() {
			f, ok := side.Child("Field")
			if !ok {
				return nil, nil, errs.Newf(errs.ErrKindStructural,
					"relationship %s: %s has no Field", rel["relationship_id"], side.Tag())
			}
			joins = append(joins, Build(f, KindJoinField).With("join_side", side.Tag()).Inherit(pred))
		}
	}
	return rel, joins, nil
}
