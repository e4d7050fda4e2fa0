package dataset

import (
	"strings"

	"github.com/omixdb/omix/internal/fasta"
	"github.com/omixdb/omix/internal/table"
)

// headerKey selects the identifier for a FASTA record header under the
// requested identifier space. GENCODE transcript headers carry
// pipe-delimited positional fields:
//
//	transcript_id|gene_id|havana_gene|havana_transcript|transcript_name|gene_name|length|...
func headerKey(header, space string) (string, error) {
	fields := fasta.Fields(header)

	pick := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch space {
	case SpaceGeneID:
		return fasta.StripVersion(pick(1)), nil
	case SpaceGeneName:
		return pick(5), nil
	case SpaceTranscriptID:
		return fasta.StripVersion(pick(0)), nil
	case SpaceTranscriptName:
		return pick(4), nil
	default:
		return "", table.Schemaf("unrecognized identifier space %q", space)
	}
}

// seqAccumulator collapses sequences sharing an identifier under a
// selection policy.
type seqAccumulator struct {
	policy     SequencePolicy
	replaceU2T bool
	order      []string
	single     map[string]string
	all        map[string][]string
}

func newSeqAccumulator(policy SequencePolicy, replaceU2T bool) *seqAccumulator {
	return &seqAccumulator{
		policy:     policy,
		replaceU2T: replaceU2T,
		single:     make(map[string]string),
		all:        make(map[string][]string),
	}
}

func (a *seqAccumulator) add(key, seq string) {
	if key == "" || seq == "" {
		return
	}
	if a.replaceU2T {
		seq = strings.ReplaceAll(seq, "U", "T")
	}

	switch a.policy {
	case PolicyAll:
		if _, seen := a.all[key]; !seen {
			a.order = append(a.order, key)
		}
		a.all[key] = append(a.all[key], seq)
	case PolicyShortest:
		prev, seen := a.single[key]
		if !seen {
			a.order = append(a.order, key)
			a.single[key] = seq
		} else if len(seq) < len(prev) {
			a.single[key] = seq
		}
	default: // PolicyLongest
		prev, seen := a.single[key]
		if !seen {
			a.order = append(a.order, key)
			a.single[key] = seq
		} else if len(seq) > len(prev) {
			a.single[key] = seq
		}
	}
}

func (a *seqAccumulator) result() map[string]table.Value {
	out := make(map[string]table.Value, len(a.order))
	for _, key := range a.order {
		if a.policy == PolicyAll {
			out[key] = table.List(a.all[key]...)
		} else {
			out[key] = table.String(a.single[key])
		}
	}
	return out
}
