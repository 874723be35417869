package recall

import (
	"math"
	"sort"

	"github.com/rushteam/shopreco/pkg/textutil"
)

type term struct {
	idx int
	w   float64
}

// sparseVec 稀疏向量，按 term index 升序，保证累加顺序确定。
type sparseVec []term

// tfidf 是一次拟合的词表与 idf。
//
//	tf  = 词频（原始计数）
//	idf = ln((1 + N) / (1 + df)) + 1
//
// 每行 L2 归一化，与 scikit-learn TfidfVectorizer 的默认行为一致。
type tfidf struct {
	vocab map[string]int
	idf   []float64
	rows  []sparseVec
}

// fitTFIDF 对文档集合拟合并返回归一化后的文档向量。
func fitTFIDF(docs []string) *tfidf {
	t := &tfidf{vocab: make(map[string]int)}

	counts := make([]map[int]float64, len(docs))
	var df []float64
	for i, doc := range docs {
		tf := make(map[int]float64)
		for _, tok := range textutil.Tokenize(doc) {
			idx, ok := t.vocab[tok]
			if !ok {
				idx = len(t.vocab)
				t.vocab[tok] = idx
				df = append(df, 0)
			}
			if tf[idx] == 0 {
				df[idx]++
			}
			tf[idx]++
		}
		counts[i] = tf
	}

	n := float64(len(docs))
	t.idf = make([]float64, len(df))
	for i, d := range df {
		t.idf[i] = math.Log((1+n)/(1+d)) + 1
	}

	t.rows = make([]sparseVec, len(docs))
	for i, tf := range counts {
		row := make(sparseVec, 0, len(tf))
		for idx, c := range tf {
			row = append(row, term{idx: idx, w: c * t.idf[idx]})
		}
		sort.Slice(row, func(a, b int) bool { return row[a].idx < row[b].idx })
		var norm float64
		for _, e := range row {
			norm += e.w * e.w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range row {
				row[k].w /= norm
			}
		}
		t.rows[i] = row
	}
	return t
}

func dot(a, b sparseVec) float64 {
	var s float64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i].idx == b[j].idx:
			s += a[i].w * b[j].w
			i++
			j++
		case a[i].idx < b[j].idx:
			i++
		default:
			j++
		}
	}
	return s
}

// similarityMatrix 行向量已归一化，余弦即点积；对角线强制为 1。
func (t *tfidf) similarityMatrix() [][]float64 {
	n := len(t.rows)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := dot(t.rows[i], t.rows[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}
