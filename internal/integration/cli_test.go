package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"ohfid-core/seq"
	"ohfid/internal/app"
	"ohfid/pkg/api"
)

var overhangs = []string{"AACC", "ACGA", "CAGC", "AGTC", "ATCC", "CTGA", "GACA", "TCAC"}

// matrixCSV gives every overhang a strong partner and deterministic
// cross-talk with everything else.
func matrixCSV(ohs []string) string {
	var labels []string
	for _, o := range ohs {
		labels = append(labels, o, seq.RevComp(o))
	}
	var b strings.Builder
	b.WriteString("," + strings.Join(labels, ",") + "\n")
	for i, a := range labels {
		b.WriteString(a)
		for j, c := range labels {
			v := (i*5 + j*11) % 23
			if c == seq.RevComp(a) {
				v = 250 + 15*i
			}
			fmt.Fprintf(&b, ",%d", v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type result struct {
	code   int
	stdout string
	stderr string
}

func ohfid(ctx context.Context, argv ...string) result {
	var out, errBuf bytes.Buffer
	code := app.RunContext(ctx, argv, &out, &errBuf)
	return result{code, out.String(), errBuf.String()}
}

var quick = []string{"-i", "200", "--stages", "4", "--calibration-iterations", "200", "--calibration-steps", "30"}

var _ = Describe("ohfid", func() {
	var (
		dir    string
		matrix string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		matrix = filepath.Join(dir, "ligation.csv")
		Expect(os.WriteFile(matrix, []byte(matrixCSV(overhangs)), 0o644)).To(Succeed())
	})

	Describe("optimize", func() {
		It("never does worse than the best of 200 random draws", func() {
			search := ohfid(context.Background(), "optimize", "-m", matrix, "-n", "3", "--seed", "17", "--restarts", "4", "-f", "json")
			Expect(search.code).To(Equal(0), search.stderr)
			var res api.ResultV1
			Expect(json.Unmarshal([]byte(search.stdout), &res)).To(Succeed())

			batch := ohfid(context.Background(), "batch", "-m", matrix, "-n", "3", "--seed", "18", "--samples", "200", "-f", "json")
			Expect(batch.code).To(Equal(0), batch.stderr)
			var b api.BatchV1
			Expect(json.Unmarshal([]byte(batch.stdout), &b)).To(Succeed())

			Expect(b.Records).To(HaveLen(200))
			Expect(b.Summary.Count).To(Equal(200))
			Expect(res.Best.Score).To(BeNumerically(">=", b.Summary.Max))
		})

		It("reports every improvement as a jsonl stream ending at the best", func() {
			r := ohfid(context.Background(), append([]string{"-m", matrix, "-n", "4", "--seed", "4", "-f", "jsonl"}, quick...)...)
			Expect(r.code).To(Equal(0), r.stderr)
			lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
			Expect(lines).NotTo(BeEmpty())
			prev := -1.0
			for _, l := range lines {
				var rec api.RecordV1
				Expect(json.Unmarshal([]byte(l), &rec)).To(Succeed())
				Expect(rec.Overhangs).To(HaveLen(4))
				Expect(rec.Score).To(BeNumerically(">", prev))
				Expect(rec.Fidelity).To(And(BeNumerically(">=", 0), BeNumerically("<=", 1)))
				prev = rec.Score
			}
		})

		It("reports 1 - fidelity when minimizing", func() {
			r := ohfid(context.Background(), append([]string{"-m", matrix, "-n", "2", "--seed", "8", "--minimize", "-f", "yaml"}, quick...)...)
			Expect(r.code).To(Equal(0), r.stderr)
			var res api.ResultV1
			Expect(yaml.Unmarshal([]byte(r.stdout), &res)).To(Succeed())
			Expect(res.Best.Score).To(BeNumerically("~", 1-res.Best.Fidelity, 1e-12))
		})

		It("searches nothing when every junction is fixed", func() {
			r := ohfid(context.Background(), "-m", matrix, "-o", "AACC", "-o", "CAGC", "--seed", "1", "-f", "json")
			Expect(r.code).To(Equal(0), r.stderr)
			var res api.ResultV1
			Expect(json.Unmarshal([]byte(r.stdout), &res)).To(Succeed())
			Expect(res.Degenerate).To(BeTrue())
			Expect(res.Iterations).To(BeZero())
			Expect(res.Best.Overhangs).To(Equal([]string{"AACC", "CAGC"}))
		})

		It("exits 130 when cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			r := ohfid(ctx, "-m", matrix, "-n", "3")
			Expect(r.code).To(Equal(app.ExitCancelled))
		})
	})

	Describe("window pools", func() {
		It("derives candidates from the reference around positional parameters", func() {
			ref := filepath.Join(dir, "ref.fa")
			Expect(os.WriteFile(ref, []byte(">chr\nTTTTAACCTTTTTTTTCAGCTTTT\n"), 0o644)).To(Succeed())
			params := filepath.Join(dir, "pos.yaml")
			Expect(os.WriteFile(params, []byte("junctions:\n  - {name: a, position: 4, window: 1}\n  - {name: b, position: 16, window: 1}\n"), 0o644)).To(Succeed())

			r := ohfid(context.Background(), "pools", "-m", matrix, "--reference", ref, "--params", params, "-f", "json")
			Expect(r.code).To(Equal(0), r.stderr)
			var pools []api.PoolV1
			Expect(json.Unmarshal([]byte(r.stdout), &pools)).To(Succeed())
			Expect(pools).To(HaveLen(2))
			Expect(pools[0].Kind).To(Equal("window"))
			Expect(pools[0].Overhangs).To(ContainElement("AACC"))
			Expect(pools[0].Sites).To(HaveLen(len(pools[0].Overhangs)))
		})
	})

	Describe("configuration", func() {
		It("reads a YAML config file and lets flags override it", func() {
			cfg := filepath.Join(dir, "ohfid.yaml")
			Expect(os.WriteFile(cfg, []byte(fmt.Sprintf("matrix: %s\njunctions: 2\nformat: json\n", matrix)), 0o644)).To(Succeed())
			r := ohfid(context.Background(), "pools", "--config", cfg, "--junctions", "3")
			Expect(r.code).To(Equal(0), r.stderr)
			var pools []api.PoolV1
			Expect(json.Unmarshal([]byte(r.stdout), &pools)).To(Succeed())
			Expect(pools).To(HaveLen(3))
		})

		It("fails fast with exit 2 on a missing junction count", func() {
			r := ohfid(context.Background(), "-m", matrix)
			Expect(r.code).To(Equal(app.ExitUsage))
			Expect(r.stderr).To(ContainSubstring("--junctions"))
		})
	})
})
