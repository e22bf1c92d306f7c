// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/linecache/internal/attrs"
	"github.com/staranto/linecache/internal/config"
)

// Options carries the flag values that shape rendering.
type Options struct {
	Output string
	Filter string
	Sort   string
	Color  bool
	Titles bool
	Local  bool
}

// OptionsFromCommand reads the global output flags from cmd.
func OptionsFromCommand(cmd *cli.Command) Options {
	return Options{
		Output: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Color:  cmd.Bool("color"),
		Titles: cmd.Bool("titles"),
		Local:  cmd.Bool("local"),
	}
}

// PostProcessor adjusts the filtered, transformed and sorted rows before they
// are rendered.
type PostProcessor func([]map[string]interface{}) error

// SliceDiceSpit filters, transforms, sorts and renders raw, a JSON document
// holding an array of row objects. When parent is set the array is taken from
// that key of the document.
func SliceDiceSpit(raw bytes.Buffer,
	attrs attrs.AttrList,
	opts Options,
	parent string,
	w io.Writer,
	postProcess PostProcessor) error {

	if w == nil {
		w = os.Stdout
	}

	// Transforms are added below, so work on a copy of the caller's list.
	attrs = append(attrs[:0:0], attrs...)

	// If raw, just dump it and go home.
	if opts.Output == "raw" {
		_, err := w.Write(raw.Bytes())
		return err
	}

	fullDataset := gjson.ParseBytes(raw.Bytes())
	if parent != "" {
		fullDataset = fullDataset.Get(parent)
	}

	// Filter first so everything downstream works on the smaller set.
	filteredDataset := FilterDataset(fullDataset, attrs, opts.Filter)

	if opts.Local {
		markTimestamps(filteredDataset, attrs)
	}

	for _, row := range filteredDataset {
		for i := range attrs {
			if attrs[i].TransformSpec != "" {
				row[attrs[i].OutputKey] = attrs[i].Transform(row[attrs[i].OutputKey])
			}
		}
	}

	SortDataset(filteredDataset, opts.Sort)

	if postProcess != nil {
		if err := postProcess(filteredDataset); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json", "yaml":
		dropExcluded(filteredDataset, attrs)
	}

	switch opts.Output {
	case "json":
		if filteredDataset == nil {
			filteredDataset = []map[string]interface{}{}
		}
		doc, err := json.Marshal(filteredDataset)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(doc))
		return err
	case "yaml":
		doc, err := yaml.Marshal(filteredDataset)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(doc)
		return err
	default:
		return TableWriter(filteredDataset, attrs, opts, w)
	}
}

// dropExcluded removes the columns of attrs marked with ! from every row. They
// were kept until now so filters, sorting and postProcess could see them.
func dropExcluded(dataset []map[string]interface{}, al attrs.AttrList) {
	included := make(map[string]bool, len(al))
	for _, attr := range al {
		if attr.Include {
			included[attr.OutputKey] = true
		}
	}

	for _, attr := range al {
		if attr.Include || included[attr.OutputKey] {
			continue
		}
		for _, row := range dataset {
			delete(row, attr.OutputKey)
		}
	}
}

// markTimestamps adds the local time transform to every attr whose value in
// the first row is an RFC3339 timestamp.
func markTimestamps(dataset []map[string]interface{}, al attrs.AttrList) {
	if len(dataset) == 0 {
		return
	}
	for i := range al {
		s, ok := dataset[0][al[i].OutputKey].(string)
		if !ok {
			continue
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			al[i].TransformSpec += "t"
		}
	}
}

// TableWriter renders the result set as a borderless text table honoring the
// color, titles and padding settings.
func TableWriter(
	resultSet []map[string]interface{},
	attrs attrs.AttrList,
	opts Options,
	w io.Writer) error {

	if len(resultSet) == 0 {
		return nil
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 1)
	log.Debugf("padding: %v", pad)

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(attrs))
		for _, attr := range attrs {
			if !attr.Include {
				continue
			}
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		var headers []string
		for _, attr := range attrs {
			if attr.Include {
				headers = append(headers, attr.OutputKey)
			}
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}

	_, err := fmt.Fprintln(w, t)
	return err
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		// Line numbers, sizes and counts are all whole numbers.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
