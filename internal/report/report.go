// Package report renders command line output as plain text tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/tphakala/ebird-recommend/internal/ebird"
	"github.com/tphakala/ebird-recommend/internal/finder"
	"github.com/tphakala/ebird-recommend/internal/lifelist"
	"github.com/tphakala/ebird-recommend/internal/recommend"
)

const dateLayout = "2006-01-02"

// newTable returns a borderless, left aligned table.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetBorder(false)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	return t
}

// LifeList prints the species count and the n most recently seen species.
func LifeList(w io.Writer, list *lifelist.List, n int) {
	fmt.Fprintf(w, "Life list: %d species\n", list.Len())

	species := list.Species()
	if len(species) == 0 {
		return
	}
	if n > 0 && len(species) > n {
		species = species[:n]
	}

	fmt.Fprintln(w, "\nMost recent:")
	t := newTable(w, "Date", "Common Name", "Scientific Name", "Code")
	for i := range species {
		e := &species[i]
		date := ""
		if !e.LastSeen.IsZero() {
			date = e.LastSeen.Format(dateLayout)
		}
		t.Append([]string{date, e.CommonName, e.ScientificName, e.SpeciesCode})
	}
	t.Render()
}

// Hotspots prints up to limit hotspots in provider order.
func Hotspots(w io.Writer, hotspots []ebird.Hotspot, limit int) {
	if len(hotspots) == 0 {
		fmt.Fprintln(w, "No hotspots found.")
		return
	}

	shown := hotspots
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	t := newTable(w, "Loc ID", "Name", "Species", "Latest")
	for i := range shown {
		h := &shown[i]
		species := ""
		if h.NumSpeciesAll != nil {
			species = strconv.Itoa(*h.NumSpeciesAll)
		}
		t.Append([]string{h.LocID, h.Name, species, h.LatestObsDt})
	}
	t.Render()

	if len(shown) < len(hotspots) {
		fmt.Fprintf(w, "\n%d of %d hotspots shown\n", len(shown), len(hotspots))
	}
}

// Observations prints observation rows.
func Observations(w io.Writer, obs []ebird.Observation) {
	if len(obs) == 0 {
		fmt.Fprintln(w, "No observations found.")
		return
	}

	t := newTable(w, "Date", "Species", "Count", "Location")
	for i := range obs {
		o := &obs[i]
		count := "X"
		if o.HowMany != nil {
			count = strconv.Itoa(*o.HowMany)
		}
		t.Append([]string{o.ObsDt, o.CommonName, count, o.LocName})
	}
	t.Render()
}

// Recommendations prints ranked picks with their score and reason.
func Recommendations(w io.Writer, recs []recommend.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No recommendations found.")
		return
	}

	t := newTable(w, "#", "Score", "Species", "Location", "Km", "Reason")
	for i := range recs {
		r := &recs[i]
		t.Append([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			r.CommonName,
			r.LocName,
			strconv.FormatFloat(r.DistanceKm, 'f', 1, 64),
			r.Reason,
		})
	}
	t.Render()
}

// HotspotDetail prints notable and recent sightings followed by checklists.
func HotspotDetail(w io.Writer, locID string, d *finder.HotspotDetail) {
	fmt.Fprintf(w, "Hotspot %s\n%s\n", locID, recommend.HotspotURL(locID))

	fmt.Fprintf(w, "\nNotable (%d):\n", len(d.Notable))
	Observations(w, d.Notable)

	fmt.Fprintf(w, "\nRecent (%d):\n", len(d.Recent))
	Observations(w, d.Recent)

	fmt.Fprintf(w, "\nChecklists (%d):\n", len(d.Checklists))
	if len(d.Checklists) == 0 {
		fmt.Fprintln(w, "No checklists found.")
		return
	}
	t := newTable(w, "Date", "Time", "Observer", "Species", "Checklist")
	for i := range d.Checklists {
		c := &d.Checklists[i]
		t.Append([]string{c.ObsDt, c.ObsTime, c.UserDisplayName, strconv.Itoa(c.NumSpecies), c.SubID})
	}
	t.Render()
}
