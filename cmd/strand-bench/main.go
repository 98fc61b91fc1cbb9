// Command strand-bench is a microbenchmark harness for strand.Replica: it
// drives a fixed workload of local edits (and, with -sites > 1,
// cross-replica integration) and reports throughput, rather than relying
// on `go test -bench` so the scenario composition stays explicit and
// readable.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/strand-weave/strand"
)

func main() {
	ops := flag.Int("ops", 5000, "number of local insertions per site")
	sites := flag.Int("sites", 1, "number of concurrent replicas")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	replicas := make([]*strand.Replica, *sites)
	for i := range replicas {
		rep, err := strand.New(uint32(i + 1))
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		replicas[i] = rep
	}

	start := time.Now()
	var produced []strand.Operation
	for _, rep := range replicas {
		for i := 0; i < *ops; i++ {
			text := randomWord(rng)
			doc := rep.GetText()
			pos := strand.Point{Row: 0, Column: int64(len(doc))}
			if len(doc) > 0 {
				pos.Column = int64(rng.Intn(len(doc) + 1))
			}
			op, err := rep.SetTextInRange(pos, pos, text)
			if err != nil {
				fmt.Println("error:", err)
				return
			}
			produced = append(produced, strand.Operation{Splice: &op})
		}
	}
	localElapsed := time.Since(start)

	var mergeElapsed time.Duration
	if *sites > 1 {
		start = time.Now()
		for _, rep := range replicas {
			if _, err := rep.IntegrateOperations(produced); err != nil {
				fmt.Println("error:", err)
				return
			}
		}
		mergeElapsed = time.Since(start)
	}

	total := *ops * *sites
	fmt.Printf("sites=%d ops/site=%d total_local_ops=%d\n", *sites, *ops, total)
	fmt.Printf("local edits: %v (%v/op)\n", localElapsed, localElapsed/time.Duration(total))
	if *sites > 1 {
		fmt.Printf("cross-replica merge: %v\n", mergeElapsed)
	}
	fmt.Printf("final document length (site 1): %d runes\n", len([]rune(replicas[0].GetText())))
}

var words = []string{"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog", " "}

func randomWord(rng *rand.Rand) string {
	return words[rng.Intn(len(words))]
}
