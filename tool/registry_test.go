package tool

import (
	"context"
	"testing"

	"github.com/reusee/minion/message"
)

func simpleDescriptor(name, description, category string) Descriptor {
	return Descriptor{
		ToolDescriptor: message.ToolDescriptor{
			Name:        name,
			Description: description,
		},
		Category: category,
	}
}

func TestRegistryRegisterAndLoad(t *testing.T) {
	r := NewRegistry()
	d := simpleDescriptor("now", "get current time", "time")
	d.Call = func(ctx context.Context, args map[string]any) (map[string]any, error) {
		return map[string]any{"now": "2026-08-03"}, nil
	}
	r.Register(d)

	loaded, err := r.LoadTool("now")
	if err != nil {
		t.Fatal(err)
	}
	result, err := loaded.Invoke(t.Context(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result["now"] != "2026-08-03" {
		t.Fatalf("got %+v", result)
	}
}

func TestRegistryFactoryBuildsOnce(t *testing.T) {
	r := NewRegistry()
	builds := 0
	r.RegisterFactory(ToolInfo{Name: "lazy", Category: "misc"}, func() (Descriptor, error) {
		builds++
		return simpleDescriptor("lazy", "", "misc"), nil
	})

	for range 3 {
		if _, err := r.LoadTool("lazy"); err != nil {
			t.Fatal(err)
		}
	}
	if builds != 1 {
		t.Fatalf("expected factory to run once, ran %d times", builds)
	}
}

func TestRegistryCategoriesAndStats(t *testing.T) {
	r := NewRegistry()
	r.Register(simpleDescriptor("a", "", "x"))
	r.Register(simpleDescriptor("b", "", "y"))
	r.RegisterFactory(ToolInfo{Name: "c", Category: "x"}, func() (Descriptor, error) {
		return simpleDescriptor("c", "", "x"), nil
	})

	cats := r.GetCategories()
	if len(cats) != 2 || cats[0] != "x" || cats[1] != "y" {
		t.Fatalf("got %+v", cats)
	}

	xTools := r.GetToolsByCategory("x")
	if len(xTools) != 2 {
		t.Fatalf("got %+v", xTools)
	}

	stats := r.GetStats()
	if stats.Total != 3 || stats.Built != 2 || stats.Deferred != 1 {
		t.Fatalf("got %+v", stats)
	}
}

func TestRegistrySearchKeyword(t *testing.T) {
	r := NewRegistry()
	r.Register(simpleDescriptor("search_web", "search the web for pages", "web"))
	r.Register(simpleDescriptor("read_file", "read a local file", "fs"))

	results, err := r.Search("web", StrategyKeyword, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "search_web" {
		t.Fatalf("got %+v", results)
	}
}

func TestRegistrySearchBM25(t *testing.T) {
	r := NewRegistry()
	r.Register(simpleDescriptor("search_web", "search the public web for pages", "web"))
	r.Register(simpleDescriptor("read_file", "read a local file from disk", "fs"))
	r.Register(simpleDescriptor("fetch_url", "fetch a url from the web", "web"))

	results, err := r.Search("web", StrategyBM25, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %+v", results)
	}
	if results[0].Name != "fetch_url" && results[0].Name != "search_web" {
		t.Fatalf("expected a web tool to rank first, got %+v", results)
	}
}

func TestFromFunc(t *testing.T) {
	add := func(ctx context.Context, a int, b int) (map[string]any, error) {
		return map[string]any{"sum": a + b}, nil
	}
	d, err := FromFunc("add", "add two numbers", add)
	if err != nil {
		t.Fatal(err)
	}
	result, err := d.Invoke(context.Background(), map[string]any{"arg0": 2, "arg1": 3})
	if err != nil {
		t.Fatal(err)
	}
	if result["sum"] != 5 {
		t.Fatalf("got %+v", result)
	}
}
