package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"metafetch/internal/enrich"
	"metafetch/internal/pipeline"
)

const maxFailedShown = 10

type row struct {
	label string
	value int
}

func printSummary(w io.Writer, s *pipeline.Summary) {
	if s == nil {
		return
	}

	var rows []row
	switch {
	case s.Enrich != nil:
		st := s.Enrich
		rows = []row{
			{"Total", st.Total},
			{"Enriched", st.Success},
			{"Already processed", st.AlreadyProcessed},
			{"Skipped", st.Skipped},
			{"Failed", st.Failed},
			{"Art added", st.ArtAdded},
			{"Art failed", st.ArtFailed},
			{"Lyrics added", st.LyricsAdded},
		}
	case s.ArtOnly != nil:
		st := s.ArtOnly
		rows = []row{
			{"Total", st.Total},
			{"Art added", st.Success},
			{"Already had art", st.AlreadyHadArt},
			{"No metadata", st.NoMetadata},
			{"Failed", st.Failed},
			{"Lyrics added", st.LyricsAdded},
		}
	case s.Strip != nil:
		st := s.Strip
		rows = []row{
			{"Total", st.Total},
			{"Stripped", st.Success},
			{"Failed", st.Failed},
		}
	}

	fmt.Fprintf(w, "\n=== %s summary (%s) ===\n", s.Mode, s.Duration.Round(time.Second))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Result", "Files"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.SetAutoFormatHeaders(false)
	for _, r := range rows {
		table.Append([]string{r.label, strconv.Itoa(r.value)})
	}
	table.Render()

	if s.Enrich != nil {
		printFailed(w, s.Enrich.FailedFiles)
	}
}

func printFailed(w io.Writer, failed []enrich.FailedFile) {
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(w, "\nFailed files:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Error"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for i, f := range failed {
		if i == maxFailedShown {
			break
		}
		table.Append([]string{f.Name, f.Err})
	}
	table.Render()

	if extra := len(failed) - maxFailedShown; extra > 0 {
		fmt.Fprintf(w, "... and %d more\n", extra)
	}
}
