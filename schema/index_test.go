package schema_test

import (
	"sync"
	"testing"

	"github.com/aachurin/sqldantic/schema"
)

type UserIndex struct {
	ID    uint   `sqld:"primaryKey"`
	Name  string `sqld:"index"`
	Name2 string `sqld:"index:idx_name,unique"`
	Name3 string `sqld:"index:,sort:desc,collate:utf8,type:btree,length:10,where:name3 != 'public'"`
	Name4 string `sqld:"uniqueIndex"`
	Age   int64  `sqld:"index:profile,expression:ABS(age),sort:desc"`
	Email string `sqld:"index:,comment:hello \\, world,where:age > 10"`
	Phone string `sqld:"index:,length:10;index:idx_contact,priority:1"`
	Code  string `sqld:"index:idx_contact,priority:2"`
}

func TestParseIndexes(t *testing.T) {
	user, err := schema.Parse(&UserIndex{}, &sync.Map{}, schema.Options{})
	if err != nil {
		t.Fatalf("failed to parse user index, got error %v", err)
	}

	want := []*schema.Index{
		{
			Name:   "idx_user_indices_name",
			Fields: []schema.IndexOption{{Field: &schema.Field{DBName: "name"}}},
		},
		{
			Name:   "idx_name",
			Class:  "UNIQUE",
			Fields: []schema.IndexOption{{Field: &schema.Field{DBName: "name2"}}},
		},
		{
			Name: "idx_user_indices_name3",
			Type: "btree",
			Fields: []schema.IndexOption{{
				Field:   &schema.Field{DBName: "name3"},
				Sort:    "desc",
				Collate: "utf8",
				Type:    "btree",
				Length:  10,
				Where:   "name3 != 'public'",
			}},
		},
		{
			Name:   "idx_user_indices_name4",
			Class:  "UNIQUE",
			Fields: []schema.IndexOption{{Field: &schema.Field{DBName: "name4"}}},
		},
		{
			Name: "profile",
			Fields: []schema.IndexOption{{
				Field:      &schema.Field{DBName: "age"},
				Expression: "ABS(age)",
				Sort:       "desc",
			}},
		},
		{
			Name: "idx_user_indices_email",
			Fields: []schema.IndexOption{{
				Field:   &schema.Field{DBName: "email"},
				Comment: "hello , world",
				Where:   "age > 10",
			}},
		},
		{
			Name: "idx_user_indices_phone",
			Fields: []schema.IndexOption{{
				Field:  &schema.Field{DBName: "phone"},
				Length: 10,
			}},
		},
		{
			Name: "idx_contact",
			Fields: []schema.IndexOption{
				{Field: &schema.Field{DBName: "phone"}},
				{Field: &schema.Field{DBName: "code"}},
			},
		},
	}

	indexes := user.ParseIndexes()
	if len(indexes) != len(want) {
		t.Fatalf("expected %d indexes, got %d", len(want), len(indexes))
	}

	for i := range want {
		w, g := want[i], indexes[i]
		if g.Name != w.Name {
			t.Errorf("index %d name should be %v, got %v", i, w.Name, g.Name)
		}
		if g.Class != w.Class {
			t.Errorf("index %v class should be %q, got %q", w.Name, w.Class, g.Class)
		}
		if g.Type != w.Type {
			t.Errorf("index %v type should be %q, got %q", w.Name, w.Type, g.Type)
		}
		if len(g.Fields) != len(w.Fields) {
			t.Errorf("index %v should have %d fields, got %d", w.Name, len(w.Fields), len(g.Fields))
			continue
		}
		for j := range w.Fields {
			wf, gf := w.Fields[j], g.Fields[j]
			if gf.DBName != wf.Field.DBName {
				t.Errorf("index %v field %d should be %v, got %v", w.Name, j, wf.Field.DBName, gf.DBName)
			}
			if gf.Expression != wf.Expression || gf.Sort != wf.Sort || gf.Collate != wf.Collate ||
				gf.Length != wf.Length || gf.Type != wf.Type || gf.Where != wf.Where || gf.Comment != wf.Comment {
				t.Errorf("index %v field %v options mismatch, expected %+v", w.Name, wf.Field.DBName, wf)
			}
		}
	}
}
