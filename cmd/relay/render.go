package main

import (
	"chunk-relay/domain"
	"fmt"
	"iter"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var items []T
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (a *app) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func (a *app) renderEntries(entries []domain.CatalogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Nothing found")
		return
	}
	table := a.newTable("Path", "Size", "Blobs", "Type", "Uploaded")
	for _, e := range entries {
		table.Append([]string{
			e.LogicalPath.String(),
			humanize.IBytes(e.TotalSize),
			strconv.Itoa(len(e.BlobIDs)),
			e.MimeType,
			humanize.Time(e.UploadedAt),
		})
	}
	table.Render()
}

func (a *app) renderPending(pending []domain.PendingRecovery) {
	table := a.newTable("Slot", "Direction", "Path", "Done", "Size", "Problem")
	for _, p := range pending {
		if p.Err != nil {
			table.Append([]string{p.Slot.String(), "-", "-", "-", "-", color.Red.Sprint(p.Err.Error())})
			continue
		}
		table.Append([]string{
			p.Slot.String(),
			p.Job.Direction.String(),
			p.Job.LogicalPath.String(),
			doneChunks(p.Job),
			humanize.IBytes(p.Job.TotalSize),
			"",
		})
	}
	table.Render()
	fmt.Fprintln(a.out, "\nresolve with: relay resolve <slot> finish|ignore|delete")
}

func doneChunks(job domain.TransferJob) string {
	if job.Direction == domain.Download {
		return fmt.Sprintf("%d/%d blobs", job.BlobIndex, len(job.BlobIDs))
	}
	return fmt.Sprintf("%s sent", humanize.IBytes(job.ChunkCursor))
}

func (a *app) renderStatus(statuses []domain.SlotStatus) {
	table := a.newTable("Slot", "State", "Transfer")
	for _, s := range statuses {
		table.Append([]string{s.Slot.String(), stateColor(s.State).Sprint(s.State.String()), s.Transfer.String()})
	}
	table.Render()
}

func stateColor(state domain.SlotState) color.Color {
	switch state {
	case domain.Free:
		return color.Green
	case domain.Busy:
		return color.Yellow
	default:
		return color.Red
	}
}

func (a *app) renderProgress(p domain.Progress) {
	fmt.Fprintf(a.out, "\r[slot %d] %s %s chunk %d/%d %3d%%", p.Slot, p.Direction, p.LogicalPath,
		min(p.Chunk+1, p.TotalChunks), p.TotalChunks, p.Percent)
}
