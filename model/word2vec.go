package model

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
)

// Word2VecModel 用词向量均值把偏好文本编码为向量，实现 core.TextEncoder。
// 供自身不带 embedding 能力的向量索引（如内存索引）处理文本写入。
type Word2VecModel struct {
	WordVectors map[string][]float64
	Dimension   int

	// OOVVector 未登录词向量，为空时未登录词被跳过
	OOVVector []float64

	// Normalize 是否对结果做 L2 归一化
	Normalize bool
}

func NewWord2VecModel(wordVectors map[string][]float64, dimension int) *Word2VecModel {
	if dimension <= 0 {
		for _, vec := range wordVectors {
			dimension = len(vec)
			break
		}
	}
	return &Word2VecModel{
		WordVectors: wordVectors,
		Dimension:   dimension,
		Normalize:   true,
	}
}

// Tokenize 按非字母数字字符切分并转小写，适配 "genres: a, b, authors: x" 这类偏好文本。
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// EncodeText 编码文本；没有任何可用词时返回零向量。
func (m *Word2VecModel) EncodeText(text string) []float64 {
	return m.EncodeWords(Tokenize(text))
}

func (m *Word2VecModel) EncodeWords(words []string) []float64 {
	out := make([]float64, m.Dimension)
	n := 0
	for _, w := range words {
		vec, ok := m.WordVectors[w]
		if !ok {
			vec = m.OOVVector
		}
		if len(vec) != m.Dimension {
			continue
		}
		n++
		for i := range out {
			out[i] += vec[i]
		}
	}
	if n == 0 {
		return out
	}
	for i := range out {
		out[i] /= float64(n)
	}
	if m.Normalize {
		var norm float64
		for _, v := range out {
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for i := range out {
				out[i] /= norm
			}
		}
	}
	return out
}

func (m *Word2VecModel) Name() string {
	return "word2vec"
}

// LoadWord2Vec 从 JSON 对象 {"word": [f1, f2, ...]} 读取词向量，所有向量维度必须一致。
func LoadWord2Vec(r io.Reader) (*Word2VecModel, error) {
	var raw map[string][]float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode word vectors: %w", err)
	}
	dimension := 0
	for word, vec := range raw {
		if dimension == 0 {
			dimension = len(vec)
		}
		if len(vec) != dimension {
			return nil, fmt.Errorf("inconsistent vector dimension: word %s has dimension %d, expected %d", word, len(vec), dimension)
		}
	}
	if dimension == 0 {
		return nil, fmt.Errorf("no valid vectors found")
	}
	return NewWord2VecModel(raw, dimension), nil
}
