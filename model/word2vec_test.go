package model

import (
	"math"
	"strings"
	"testing"
)

func TestWord2Vec_EncodeText(t *testing.T) {
	m, err := LoadWord2Vec(strings.NewReader(`{"fantasy":[1,0],"history":[0,1]}`))
	if err != nil {
		t.Fatalf("LoadWord2Vec: %v", err)
	}

	v := m.EncodeText("genres: Fantasy, history, authors: none")
	want := 1 / math.Sqrt(2)
	if math.Abs(v[0]-want) > 1e-9 || math.Abs(v[1]-want) > 1e-9 {
		t.Errorf("EncodeText = %v, want [%v %v]", v, want, want)
	}

	zero := m.EncodeText("unknown words only")
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("未登录词应返回零向量，got %v", zero)
	}
}

func TestLoadWord2Vec_Inconsistent(t *testing.T) {
	if _, err := LoadWord2Vec(strings.NewReader(`{"a":[1,0],"b":[1]}`)); err == nil {
		t.Error("expected dimension error")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("genres: sci-fi, Mystery, age: 30")
	want := []string{"genres", "sci-fi", "mystery", "age", "30"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
