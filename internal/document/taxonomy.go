package document

import "github.com/google/uuid"

var taxonomyNamespace = uuid.MustParse("6f1f6d9c-3c5e-4f0e-9a57-2b9d4c1e7a10")

// TaxonomyID is the stable identifier of a tag or category name.
func TaxonomyID(kind, name string) string {
	return uuid.NewSHA1(taxonomyNamespace, []byte(kind+":"+name)).String()
}

// Taxonomy is the editor's lookup table of tags, categories and metadata keys.
type Taxonomy struct {
	Categories map[string]string `json:"categories"`
	Tags       map[string]string `json:"tags"`
	Metadata   []string          `json:"metadata"`
}

// BuildTaxonomy collects every tag and category used by docs.
func BuildTaxonomy(docs []*Document, metadataKeys []string) Taxonomy {
	t := Taxonomy{
		Categories: map[string]string{},
		Tags:       map[string]string{},
		Metadata:   append([]string{}, metadataKeys...),
	}
	for _, d := range docs {
		for _, name := range d.Tags {
			t.Tags[TaxonomyID("tag", name)] = name
		}
		for _, name := range d.Categories {
			t.Categories[TaxonomyID("category", name)] = name
		}
	}
	return t
}
