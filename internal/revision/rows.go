package revision

import (
	"sort"
	"strings"

	"github.com/basalt-metrics/pyquality/internal/cyclomatic"
	"github.com/basalt-metrics/pyquality/internal/halstead"
	"github.com/basalt-metrics/pyquality/internal/metricspipeline"
	"github.com/basalt-metrics/pyquality/internal/store"
)

// fileAggregate holds the values a directory roll-up needs from one
// already-emitted file row, avoiding a second pass over AnalyzedFile.
type fileAggregate struct {
	relPath        string
	loc, sloc, lloc, comments, multi, blank, singleComments int64
	h1, h2, n1, n2, vocabulary, length                      int64
	volume, difficulty, effort                              float64
	hasHalstead                                              bool
	complexity                                               float64
	hasComplexity                                            bool
	mi                                                        float64
	rank                                                      string
	hasMI                                                     bool
}

func fileRow(meta Meta, relPath string, f *metricspipeline.AnalyzedFile) (store.MetricRow, fileAggregate) {
	row := store.MetricRow{
		Revision:        meta.Key,
		RevisionDate:    meta.Date,
		RevisionAuthor:  meta.Author,
		RevisionMessage: meta.Message,
		Path:            relPath,
		PathType:        string(store.PathTypeFile),
	}

	var agg fileAggregate
	agg.relPath = relPath

	if f.HasRaw {
		row.LOC = store.Int64(f.Raw.LOC)
		row.SLOC = store.Int64(f.Raw.SLOC)
		row.LLOC = store.Int64(f.Raw.LLOC)
		row.Comments = store.Int64(f.Raw.Comments)
		row.Multi = store.Int64(f.Raw.Multi)
		row.Blank = store.Int64(f.Raw.Blank)
		row.SingleComments = store.Int64(f.Raw.SingleComments)

		agg.loc, agg.sloc, agg.lloc = int64(f.Raw.LOC), int64(f.Raw.SLOC), int64(f.Raw.LLOC)
		agg.comments, agg.multi, agg.blank = int64(f.Raw.Comments), int64(f.Raw.Multi), int64(f.Raw.Blank)
		agg.singleComments = int64(f.Raw.SingleComments)
	}

	if f.HasCyclomatic {
		row.Complexity = store.Float64(float64(f.CyclomaticTotal))
		agg.complexity = float64(f.CyclomaticTotal)
		agg.hasComplexity = true
	}

	if f.HasHalstead {
		d := f.HalsteadTotal.Derive()
		row.H1 = store.Int64(d.H1)
		row.H2 = store.Int64(d.H2)
		row.N1 = store.Int64(d.N1)
		row.N2 = store.Int64(d.N2)
		row.Vocabulary = store.Int64(d.Vocabulary)
		row.Length = store.Int64(d.Length)
		row.Volume = store.Float64(d.Volume)
		row.Difficulty = store.Float64(d.Difficulty)
		row.Effort = store.Float64(d.Effort)

		agg.h1, agg.h2, agg.n1, agg.n2 = int64(d.H1), int64(d.H2), int64(d.N1), int64(d.N2)
		agg.vocabulary, agg.length = int64(d.Vocabulary), int64(d.Length)
		agg.volume, agg.difficulty, agg.effort = d.Volume, d.Difficulty, d.Effort
		agg.hasHalstead = true
	}

	if f.HasMI {
		row.MI = store.Float64(f.MI.MI)
		row.Rank = store.String(f.MI.Rank)
		agg.mi, agg.rank, agg.hasMI = f.MI.MI, f.MI.Rank, true
	}

	return row, agg
}

// byteRange identifies a function body by its span in the source, the only
// key common to both the cyclomatic and Halstead visitors' independent
// walks of the same parse tree.
type byteRange struct {
	start, end uint32
}

func functionRows(meta Meta, relPath string, f *metricspipeline.AnalyzedFile) []store.MetricRow {
	if !f.HasCyclomatic {
		return nil
	}

	var byRange map[byteRange]*halstead.Metrics

	if f.HasHalstead {
		byRange = make(map[byteRange]*halstead.Metrics, len(f.FunctionHalstead))

		for _, fh := range f.FunctionHalstead {
			byRange[byteRange{fh.StartByte, fh.EndByte}] = fh.Metrics
		}
	}

	rows := make([]store.MetricRow, 0, len(f.Functions))

	for _, fn := range f.Functions {
		fullname := fn.Name
		if fn.IsMethod {
			fullname = fn.ClassName + "." + fn.Name
		}

		row := store.MetricRow{
			Revision:        meta.Key,
			RevisionDate:    meta.Date,
			RevisionAuthor:  meta.Author,
			RevisionMessage: meta.Message,
			Path:            relPath + ":" + fullname,
			PathType:        string(store.PathTypeFunction),
			Complexity:      store.Float64(float64(fn.Complexity)),
			IsMethod:        store.Bool(fn.IsMethod),
			ClassName:       classNamePtr(fn),
			LineNo:          store.Int64(fn.StartLine),
			EndLine:         store.Int64(fn.EndLine),
		}

		if hm, ok := byRange[byteRange{fn.StartByte, fn.EndByte}]; ok {
			d := hm.Derive()
			row.H1 = store.Int64(d.H1)
			row.H2 = store.Int64(d.H2)
			row.N1 = store.Int64(d.N1)
			row.N2 = store.Int64(d.N2)
			row.Vocabulary = store.Int64(d.Vocabulary)
			row.Length = store.Int64(d.Length)
			row.Volume = store.Float64(d.Volume)
			row.Difficulty = store.Float64(d.Difficulty)
			row.Effort = store.Float64(d.Effort)
		}

		rows = append(rows, row)
	}

	return rows
}

func classNamePtr(fn cyclomatic.FunctionComplexity) *string {
	if !fn.IsMethod {
		return nil
	}

	return store.String(fn.ClassName)
}

func classRows(meta Meta, relPath string, f *metricspipeline.AnalyzedFile) []store.MetricRow {
	if !f.HasCyclomatic {
		return nil
	}

	rows := make([]store.MetricRow, 0, len(f.Classes))

	for _, c := range f.Classes {
		rows = append(rows, store.MetricRow{
			Revision:        meta.Key,
			RevisionDate:    meta.Date,
			RevisionAuthor:  meta.Author,
			RevisionMessage: meta.Message,
			Path:            relPath + ":" + c.Name,
			PathType:        string(store.PathTypeClass),
			Complexity:      store.Float64(float64(c.Complexity)),
			RealComplexity:  store.Int64(c.RealComplexity),
			LineNo:          store.Int64(c.StartLine),
			EndLine:         store.Int64(c.EndLine),
		})
	}

	return rows
}

// directoryRows aggregates fileRows per directory in dirs, per spec.md
// §4.H step 5. A directory with no contributing files is omitted.
func directoryRows(meta Meta, dirs []string, fileRows []fileAggregate) []store.MetricRow {
	var rows []store.MetricRow

	for _, dir := range dirs {
		contributing := make([]fileAggregate, 0, len(fileRows))

		for _, fr := range fileRows {
			if dirContains(dir, fr.relPath) {
				contributing = append(contributing, fr)
			}
		}

		if len(contributing) == 0 {
			continue
		}

		pathType := store.PathTypeDirectory
		if dir == "" {
			pathType = store.PathTypeRoot
		}

		row := store.MetricRow{
			Revision:        meta.Key,
			RevisionDate:    meta.Date,
			RevisionAuthor:  meta.Author,
			RevisionMessage: meta.Message,
			Path:            dir,
			PathType:        string(pathType),
		}

		var loc, sloc, lloc, comments, multi, blank, singleComments int64

		var h1, h2, n1, n2, vocabulary, length int64

		var volume, difficulty, effort float64

		var complexitySum, miSum float64

		var complexityCount, miCount int

		ranks := make(map[string]int)

		for _, fr := range contributing {
			loc += fr.loc
			sloc += fr.sloc
			lloc += fr.lloc
			comments += fr.comments
			multi += fr.multi
			blank += fr.blank
			singleComments += fr.singleComments

			if fr.hasHalstead {
				h1 += fr.h1
				h2 += fr.h2
				n1 += fr.n1
				n2 += fr.n2
				vocabulary += fr.vocabulary
				length += fr.length
				volume += fr.volume
				difficulty += fr.difficulty
				effort += fr.effort
			}

			if fr.hasComplexity {
				complexitySum += fr.complexity
				complexityCount++
			}

			if fr.hasMI {
				miSum += fr.mi
				miCount++
				ranks[fr.rank]++
			}
		}

		row.LOC = store.Int64(int(loc))
		row.SLOC = store.Int64(int(sloc))
		row.LLOC = store.Int64(int(lloc))
		row.Comments = store.Int64(int(comments))
		row.Multi = store.Int64(int(multi))
		row.Blank = store.Int64(int(blank))
		row.SingleComments = store.Int64(int(singleComments))

		row.H1 = store.Int64(int(h1))
		row.H2 = store.Int64(int(h2))
		row.N1 = store.Int64(int(n1))
		row.N2 = store.Int64(int(n2))
		row.Vocabulary = store.Int64(int(vocabulary))
		row.Length = store.Int64(int(length))
		row.Volume = store.Float64(volume)
		row.Difficulty = store.Float64(difficulty)
		row.Effort = store.Float64(effort)

		if complexityCount > 0 {
			row.Complexity = store.Float64(complexitySum / float64(complexityCount))
		}

		if miCount > 0 {
			row.MI = store.Float64(miSum / float64(miCount))
			row.Rank = store.String(modeRank(ranks))
		}

		rows = append(rows, row)
	}

	return rows
}

// dirContains reports whether relPath lies at or under dir (the empty
// string matches every path, as the root).
func dirContains(dir, relPath string) bool {
	if dir == "" {
		return true
	}

	return relPath == dir || strings.HasPrefix(relPath, dir+"/")
}

// modeRank returns the most frequent rank, breaking ties by lexical
// minimum among the tied ranks.
func modeRank(counts map[string]int) string {
	best := ""
	bestCount := -1

	ranks := make([]string, 0, len(counts))
	for r := range counts {
		ranks = append(ranks, r)
	}

	sort.Strings(ranks)

	for _, r := range ranks {
		if counts[r] > bestCount {
			best = r
			bestCount = counts[r]
		}
	}

	return best
}
