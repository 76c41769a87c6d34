package main

import (
	"testing"

	"github.com/dudu/eyetrainer/internal/config"
)

func TestMatchShape(t *testing.T) {
	tests := []struct {
		got, want []int64
		ok        bool
	}{
		{[]int64{1, 224, 224, 3}, []int64{1, 224, 224, 3}, true},
		{[]int64{-1, 224, 224, 3}, []int64{1, 224, 224, 3}, true},
		{[]int64{1, 3, 224, 224}, []int64{1, 224, 224, 3}, false},
		{[]int64{1, 75, 300, 3}, []int64{1, 224, 224, 3}, false},
		{[]int64{1, 224, 224}, []int64{1, 224, 224, 3}, false},
	}
	for _, tt := range tests {
		err := matchShape(tt.got, tt.want)
		if (err == nil) != tt.ok {
			t.Errorf("matchShape(%v, %v) = %v, want ok=%v", tt.got, tt.want, err, tt.ok)
		}
	}
}

func TestStaticSize(t *testing.T) {
	if n, ok := staticSize([]int64{1, 5}); !ok || n != 5 {
		t.Errorf("staticSize([1 5]) = %d, %v", n, ok)
	}
	if _, ok := staticSize([]int64{-1, 136}); ok {
		t.Error("dynamic shape reported as static")
	}
}

func TestContractsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Models.CropWidth = 300
	cfg.Models.CropHeight = 75

	cs := contracts(cfg)
	if len(cs) != 2 {
		t.Fatalf("got %d contracts", len(cs))
	}
	cls := cs[0]
	if cls.InDims[1] != 75 || cls.InDims[2] != 300 || cls.OutLen != 5 {
		t.Errorf("classifier contract = %+v", cls)
	}
	if cs[1].OutLen != 136 || cs[1].InDims[2] != 112 {
		t.Errorf("landmark contract = %+v", cs[1])
	}
}
