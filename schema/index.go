package schema

import (
	"sort"
	"strconv"
	"strings"
)

type Index struct {
	Name   string
	Class  string // UNIQUE | FULLTEXT | SPATIAL
	Type   string // btree, hash, gist, spgist, gin, and brin
	Fields []IndexOption
}

type IndexOption struct {
	*Field
	Expression string
	Sort       string // DESC, ASC
	Collate    string
	Length     int
	Type       string // btree, hash, gist, spgist, gin, and brin
	Where      string
	Comment    string
	priority   int
}

// ParseIndexes parses index settings into index definitions; fields
// naming the same index form a composite one, ordered by priority.
func (schema *Schema) ParseIndexes() []*Index {
	var (
		indexes       []*Index
		indexesByName = map[string]*Index{}
	)

	for _, dbName := range schema.DBNames {
		field := schema.FieldsByDBName[dbName]
		if field.TagSettings["INDEX"] == "" && field.TagSettings["UNIQUEINDEX"] == "" {
			continue
		}
		for _, index := range parseFieldIndexes(field) {
			idx := indexesByName[index.Name]
			if idx == nil {
				idx = &Index{Name: index.Name}
				indexesByName[index.Name] = idx
				indexes = append(indexes, idx)
			}
			if idx.Class == "" {
				idx.Class = index.Class
			}
			if idx.Type == "" {
				idx.Type = index.Type
			}
			idx.Fields = append(idx.Fields, index.Fields...)
		}
	}

	for _, index := range indexes {
		sort.SliceStable(index.Fields, func(i, j int) bool {
			return index.Fields[i].priority < index.Fields[j].priority
		})
	}

	return indexes
}

func parseFieldIndexes(field *Field) (indexes []Index) {
	for _, value := range strings.Split(field.Tag.Get("sqld"), ";") {
		if value == "" {
			continue
		}
		v := strings.Split(value, ":")
		k := strings.TrimSpace(strings.ToUpper(v[0]))
		if k != "INDEX" && k != "UNIQUEINDEX" {
			continue
		}

		var (
			name     string
			tag      = strings.Join(v[1:], ":")
			settings = map[string]string{}
		)

		names := strings.Split(tag, ",")
		for i := 0; i < len(names); i++ {
			j := i
			if len(names[j]) > 0 {
				for {
					if names[j][len(names[j])-1] == '\\' {
						i++
						names[j] = names[j][0:len(names[j])-1] + "," + names[i]
						names[i] = ""
					} else {
						break
					}
				}
			}

			if j == 0 {
				name = names[0]
			}

			values := strings.Split(names[j], ":")
			k := strings.TrimSpace(strings.ToUpper(values[0]))

			if len(values) >= 2 {
				settings[k] = strings.Join(values[1:], ":")
			} else if k != "" {
				settings[k] = k
			}
		}

		if name == "" {
			name = field.Schema.namer.IndexName(field.Schema.Table, field.Name)
		}

		length, _ := strconv.Atoi(settings["LENGTH"])
		priority, err := strconv.Atoi(settings["PRIORITY"])
		if err != nil {
			priority = 10
		}

		if k == "UNIQUEINDEX" || settings["UNIQUE"] != "" {
			settings["CLASS"] = "UNIQUE"
		}

		indexes = append(indexes, Index{
			Name:  name,
			Class: settings["CLASS"],
			Type:  settings["TYPE"],
			Fields: []IndexOption{{
				Field:      field,
				Expression: settings["EXPRESSION"],
				Sort:       settings["SORT"],
				Collate:    settings["COLLATE"],
				Type:       settings["TYPE"],
				Length:     length,
				Where:      settings["WHERE"],
				Comment:    settings["COMMENT"],
				priority:   priority,
			}},
		})
	}

	return
}
