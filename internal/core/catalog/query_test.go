package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataset-hub-service/internal/core/domain"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func makeDatasets(n int) []*domain.Dataset {
	out := make([]*domain.Dataset, 0, n)
	for i := 0; i < n; i++ {
		ft := domain.FileTypeImage
		if i%2 == 1 {
			ft = domain.FileTypeText
		}
		out = append(out, &domain.Dataset{
			ID:        fmt.Sprintf("ds-%02d", i),
			Name:      fmt.Sprintf("dataset_%02d", i),
			Domain:    domain.Domains[i%len(domain.Domains)],
			FileType:  ft,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func ids(ds []*domain.Dataset) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func TestPaginate_ScenarioC(t *testing.T) {
	records := makeDatasets(20)
	coll := DatasetProfile

	page := coll.Paginate(records, 3)
	assert.Equal(t, ids(records[12:18]), ids(page))
	assert.Equal(t, 4, coll.TotalPages(len(records)))
}

func TestPaginate_Bounds(t *testing.T) {
	records := makeDatasets(20)
	assert.Len(t, DatasetProfile.Paginate(records, 4), 2)
	assert.Empty(t, DatasetProfile.Paginate(records, 5))
	assert.Empty(t, DatasetProfile.Paginate(records, 0))
	assert.Equal(t, 0, DatasetProfile.TotalPages(0))
}

func TestQuery_Deterministic(t *testing.T) {
	records := makeDatasets(30)
	p := Params{Query: "dataset_1", Category: "text", Sort: SortName, Page: 1}

	first := DatasetCatalog.Query(records, p)
	second := DatasetCatalog.Query(records, p)
	assert.Equal(t, ids(first.Items), ids(second.Items))
	assert.Equal(t, first.Total, second.Total)
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	records := makeDatasets(10)
	before := ids(records)
	DatasetCatalog.Query(records, Params{Sort: SortLatest, Page: 1})
	assert.Equal(t, before, ids(records))
}

func TestFilter_ConjunctiveQueryAndCategory(t *testing.T) {
	records := []*domain.Dataset{
		{ID: "1", Name: "chest_xray", Domain: "Health", FileType: domain.FileTypeImage},
		{ID: "2", Name: "notes", Domain: "Health", FileType: domain.FileTypeText},
		{ID: "3", Name: "stocks", Domain: "Finance", FileType: domain.FileTypeText},
	}

	assert.Equal(t, []string{"2"}, ids(DatasetCatalog.Filter(records, "HEALTH", "text")))
	assert.Equal(t, []string{"1", "2"}, ids(DatasetCatalog.Filter(records, "health", CategoryAll)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(DatasetCatalog.Filter(records, "", "")))
	assert.Empty(t, DatasetCatalog.Filter(records, "xray", "text"))
}

func TestFilter_ProfileSearchesDescription(t *testing.T) {
	records := []*domain.Dataset{
		{ID: "1", Name: "a", Description: "MRI scans", Domain: "Health"},
		{ID: "2", Name: "b", Description: "tweets", Domain: "Social Media"},
	}
	assert.Equal(t, []string{"1"}, ids(DatasetProfile.Filter(records, "mri", "")))
	assert.Empty(t, DatasetProfile.Filter(records, "social", ""))
}

func TestSort_LatestAndStableTies(t *testing.T) {
	records := []*domain.Dataset{
		{ID: "old", Name: "b", CreatedAt: base},
		{ID: "tie1", Name: "a", CreatedAt: base.Add(time.Hour)},
		{ID: "new", Name: "c", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "tie2", Name: "a", CreatedAt: base.Add(time.Hour)},
		{ID: "edited", Name: "d", CreatedAt: base, UpdatedAt: base.Add(3 * time.Hour)},
	}
	assert.Equal(t, []string{"edited", "new", "tie1", "tie2", "old"}, ids(DatasetCatalog.Sort(records, SortLatest)))
	assert.Equal(t, []string{"tie1", "tie2", "old", "new", "edited"}, ids(DatasetCatalog.Sort(records, SortName)))
}

func TestSort_NameIgnoresCase(t *testing.T) {
	records := []*domain.Dataset{
		{ID: "1", Name: "apple"},
		{ID: "2", Name: "Banana"},
		{ID: "3", Name: "cherry"},
		{ID: "4", Name: "Apple"},
	}
	assert.Equal(t, []string{"1", "4", "2", "3"}, ids(DatasetCatalog.Sort(records, SortName)))
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortName, ParseSortKey("Name"))
	assert.Equal(t, SortLatest, ParseSortKey(""))
	assert.Equal(t, SortLatest, ParseSortKey("popular"))
}

func TestPromptCatalog_Query(t *testing.T) {
	prompts := make([]*domain.Prompt, 0, 20)
	for i := 0; i < 20; i++ {
		prompts = append(prompts, &domain.Prompt{
			Name:      fmt.Sprintf("prompt_%02d", i),
			Domain:    "Finance",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	view := PromptCatalog.Query(prompts, Params{Category: "finance", Page: 1})
	require.Len(t, view.Items, 15)
	assert.Equal(t, "prompt_19", view.Items[0].Name)
	assert.Equal(t, 2, view.TotalPages)
	assert.Equal(t, 20, view.Total)
}
