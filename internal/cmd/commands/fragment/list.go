package fragment

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"

	"github.com/hashicorp-forge/fragments/internal/cmd/base"
	"github.com/hashicorp-forge/fragments/pkg/fragments"
)

// snippetLen bounds the data column of table output.
const snippetLen = 40

type ListCommand struct {
	*base.Command

	flagExpand bool
	flagData   bool
	flagSince  string
	flagFormat string
}

// listItem is one fragment in list output.
type listItem struct {
	ID       string              `json:"id" yaml:"id"`
	Fragment *fragments.Fragment `json:"fragment,omitempty" yaml:"fragment,omitempty"`
	Data     string              `json:"data,omitempty" yaml:"data,omitempty"`
	Error    string              `json:"error,omitempty" yaml:"error,omitempty"`
}

func (c *ListCommand) Synopsis() string {
	return "List your fragments"
}

func (c *ListCommand) Help() string {
	return `Usage: fragments list [options]

  List the fragments owned by the signed-in user. With -expand, metadata is
  shown for each fragment. With -data, the content of every fragment is
  fetched as well.` + c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list", flag.ContinueOnError))
	c.AddGlobalFlags(f)

	f.BoolVar(
		&c.flagExpand, "expand", false,
		"Include fragment metadata",
	)
	f.BoolVar(
		&c.flagData, "data", false,
		"Fetch and show fragment content",
	)
	f.StringVar(
		&c.flagSince, "since", "",
		"Only show fragments updated at or after this time (implies -expand)",
	)
	f.StringVar(
		&c.flagFormat, "format", base.FormatTable,
		"Output format (table, json, yaml)",
	)

	return f
}

func (c *ListCommand) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	var since time.Time
	if c.flagSince != "" {
		t, err := dateparse.ParseLocal(c.flagSince)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error parsing -since: %v", err))
			return 1
		}
		since = t
	}
	expand := c.flagExpand || !since.IsZero()

	ctx, cancel := c.Context()
	defer cancel()

	a, err := c.App(ctx)
	if err != nil {
		return c.Fail(err)
	}

	entries, err := a.Fragments.GetFragments(ctx, expand)
	if err != nil {
		return c.Fail(err)
	}
	if !since.IsZero() {
		entries = updatedSince(entries, since)
	}

	items := make([]listItem, len(entries))
	for i, e := range entries {
		items[i] = listItem{ID: e.ID, Fragment: e.Fragment}
	}

	if c.flagData && len(entries) > 0 {
		data, err := a.Fragments.GetFragmentDataAll(ctx, fragments.IDs(entries))
		if fragments.IsAuthentication(err) {
			return c.Fail(err)
		}
		for i, d := range data {
			if d != nil {
				items[i].Data = string(d)
			}
		}
		if err != nil {
			// Show what could be fetched and report the rest.
			c.UI.Warn(fmt.Sprintf("Some fragments could not be fetched: %v", err))
			for i := range items {
				if data[i] == nil {
					items[i].Error = "unavailable"
				}
			}
		}
	}

	if c.flagFormat != base.FormatTable {
		if err := c.Print(c.flagFormat, items); err != nil {
			return c.Fail(err)
		}
		return 0
	}

	if len(items) == 0 {
		c.UI.Output("No fragments")
		return 0
	}
	if err := c.Print(base.FormatTable, c.table(items, expand)); err != nil {
		return c.Fail(err)
	}
	return 0
}

func (c *ListCommand) table(items []listItem, expand bool) *base.Table {
	t := &base.Table{}
	if expand {
		t.Header = []string{"ID", "TYPE", "SIZE", "UPDATED"}
	} else {
		t.Header = []string{"ID"}
	}
	if c.flagData {
		t.Header = append(t.Header, "DATA")
	}

	for _, item := range items {
		row := []string{item.ID}
		if expand {
			if item.Fragment != nil {
				row = append(row,
					item.Fragment.Type,
					humanize.Bytes(uint64(item.Fragment.Size)),
					humanize.Time(item.Fragment.Updated),
				)
			} else {
				row = append(row, "-", "-", "-")
			}
		}
		if c.flagData {
			if item.Error != "" {
				row = append(row, "<"+item.Error+">")
			} else {
				row = append(row, snippet(item.Data))
			}
		}
		t.Append(row...)
	}
	return t
}

func updatedSince(entries []fragments.Entry, since time.Time) []fragments.Entry {
	out := make([]fragments.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Fragment != nil && !e.Fragment.Updated.Before(since) {
			out = append(out, e)
		}
	}
	return out
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) > snippetLen {
		return string([]rune(s)[:snippetLen-3]) + "..."
	}
	return s
}
