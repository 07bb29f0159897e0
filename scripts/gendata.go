// Sample dataset generator for veridict.
// Run with: go run ./scripts/gendata.go --total 100 --out data
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type update struct {
	Text        string  `json:"text"`
	Timestamp   string  `json:"timestamp,omitempty"`
	Reliability float64 `json:"reliability"`
}

type dialogue struct {
	DialogID    string  `json:"dialog_id"`
	Subject     string  `json:"subject"`
	Turns       []turn  `json:"turns"`
	Update      *update `json:"update,omitempty"`
	Question    string  `json:"question"`
	GroundTruth string  `json:"ground_truth"`
	Scenario    string  `json:"scenario"`
}

var scenarios = []string{"MemTrue_RAGStale", "RAGTrue_MemRumor", "Unknown", "Edge"}

const dateLayout = "2006-01-02"

func main() {
	total := flag.Int("total", 100, "Total record count")
	outDir := flag.String("out", "data", "Output directory")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	docsPath := filepath.Join(*outDir, "docs.csv")
	dialogsPath := filepath.Join(*outDir, "dialogs.jsonl")

	docsFile, err := os.Create(docsPath)
	if err != nil {
		log.Fatalf("create docs file: %v", err)
	}
	defer docsFile.Close()

	dialogsFile, err := os.Create(dialogsPath)
	if err != nil {
		log.Fatalf("create dialogs file: %v", err)
	}
	defer dialogsFile.Close()

	w := csv.NewWriter(docsFile)
	header := []string{"doc_id", "subject", "slot", "fact_text", "fact_timestamp", "source", "stale", "title", "body"}
	if err := w.Write(header); err != nil {
		log.Fatalf("write header: %v", err)
	}

	enc := json.NewEncoder(dialogsFile)
	counts := map[string]int{}

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < *total; i++ {
		scenario := scenarios[i%len(scenarios)]
		counts[scenario]++

		subject := fmt.Sprintf("EVT%03d", i)
		docDate := base.AddDate(0, 0, rng.Intn(120))
		docISO := docDate.Format(dateLayout)
		factText := fmt.Sprintf("The event takes place on %s.", docISO)

		stale := scenario == "MemTrue_RAGStale"
		row := []string{
			fmt.Sprintf("d%03d", i+1),
			subject,
			"date",
			factText,
			docISO,
			"wiki_revision",
			strconv.FormatBool(stale),
			fmt.Sprintf("Event %03d", i),
			fmt.Sprintf("Schedule notice for event %03d. Recorded date: %s.", i, docISO),
		}
		if err := w.Write(row); err != nil {
			log.Fatalf("write doc row: %v", err)
		}

		dlg := dialogue{
			DialogID: fmt.Sprintf("evt%03d_%s", i, scenario),
			Subject:  subject,
			Question: "What is the date now?",
			Scenario: scenario,
			Turns: []turn{
				{Role: "user", Text: fmt.Sprintf("About event %03d, when does it happen?", i)},
				{Role: "assistant", Text: "The notice lists a recorded date."},
			},
		}

		switch scenario {
		case "MemTrue_RAGStale":
			// Official correction: newer, reliable, wins over the stale doc.
			memDate := docDate.AddDate(0, 0, 7+rng.Intn(21)).Format(dateLayout)
			dlg.Update = &update{
				Text:        fmt.Sprintf("The event takes place on %s.", memDate),
				Timestamp:   memDate,
				Reliability: 0.8 + 0.2*rng.Float64(),
			}
			dlg.GroundTruth = dlg.Update.Text
			dlg.Turns = append(dlg.Turns,
				turn{Role: "user", Text: fmt.Sprintf("Update: the date moved to %s.", memDate)})

		case "RAGTrue_MemRumor":
			// Unreliable rumor: the document stays correct.
			memDate := docDate.AddDate(0, 0, -(7 + rng.Intn(21))).Format(dateLayout)
			dlg.Update = &update{
				Text:        fmt.Sprintf("The event takes place on %s.", memDate),
				Reliability: 0.1 + 0.2*rng.Float64(),
			}
			dlg.GroundTruth = factText
			dlg.Turns = append(dlg.Turns,
				turn{Role: "user", Text: fmt.Sprintf("I heard the date changed to %s, not sure though.", memDate)})

		case "Unknown":
			// Vague mention, no usable memory value.
			dlg.GroundTruth = "unknown"
			dlg.Turns = append(dlg.Turns,
				turn{Role: "user", Text: "A friend mentioned it might be moved next month."})

		case "Edge":
			// Middling reliability close to the decision boundary.
			memDate := docDate.AddDate(0, 0, 1+rng.Intn(4)).Format(dateLayout)
			dlg.Update = &update{
				Text:        fmt.Sprintf("The event takes place on %s.", memDate),
				Timestamp:   memDate,
				Reliability: 0.4 + 0.2*rng.Float64(),
			}
			if rng.Float64() < 0.5 {
				dlg.GroundTruth = dlg.Update.Text
			} else {
				dlg.GroundTruth = "unknown"
			}
			dlg.Turns = append(dlg.Turns,
				turn{Role: "user", Text: fmt.Sprintf("New post says the date is %s (%s).", memDate, memDate)})
		}

		dlg.Turns = append(dlg.Turns, turn{Role: "user", Text: "So what is the date now?"})

		if err := enc.Encode(dlg); err != nil {
			log.Fatalf("write dialogue: %v", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flush docs: %v", err)
	}

	fmt.Println("Done.")
	fmt.Println("Counts:", counts)
	fmt.Printf("Wrote %s and %s\n", docsPath, dialogsPath)
}
