package presenter

import (
	"bufio"
	"fmt"
	"io"
)

// WriteText renders v as plain text, one block per entry.
func WriteText(w io.Writer, v PatientView) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %s\n", v.Name, v.GenderIcon.Glyph())
	fmt.Fprintf(bw, "SSN: %s\n", v.SSN)
	fmt.Fprintf(bw, "Occupation: %s\n", v.Occupation)
	fmt.Fprintf(bw, "DOB: %s\n", v.DateOfBirth)

	if v.ShowEntriesHeading() {
		fmt.Fprint(bw, "\nEntries\n")
	}
	for _, e := range v.Entries {
		fmt.Fprintln(bw)
		writeEntry(bw, e)
	}
	return bw.Flush()
}

func writeEntry(w io.Writer, e EntryView) {
	if e.Employer != "" {
		fmt.Fprintf(w, "%s %s %s\n", e.Date, e.Icon.Glyph(), e.Employer)
	} else {
		fmt.Fprintf(w, "%s %s\n", e.Date, e.Icon.Glyph())
	}
	fmt.Fprintf(w, "  %s\n", e.Description)
	if len(e.Diagnoses) > 0 {
		fmt.Fprintln(w, "  Diagnosed with:")
		for _, d := range e.Diagnoses {
			fmt.Fprintf(w, "    %s\n", d)
		}
	}
	if e.Discharge != nil {
		fmt.Fprintf(w, "  Discharge date: %s\n", e.Discharge.Date)
		fmt.Fprintf(w, "  Criteria for discharge: %s\n", e.Discharge.Criteria)
	}
	if e.SickLeave != "" {
		fmt.Fprintf(w, "  Sick leave: %s\n", e.SickLeave)
	}
	if e.Rating != nil {
		fmt.Fprintf(w, "  %s\n", e.Rating)
	}
	fmt.Fprintf(w, "  Diagnosed by %s\n", e.Specialist)
}
