package feature

import (
	"testing"

	"github.com/osako110/Recommend/core"
)

func ev(user, item string, t core.EventType) core.InteractionEvent {
	return core.InteractionEvent{UserID: user, ItemID: item, EventType: t}
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name      string
		events    []core.InteractionEvent
		want      map[[2]string]float64
		wantUsers []string
		wantItems []string
		dropped   int
	}{
		{
			name: "read + review 累加，bookmark 权重 1",
			events: []core.InteractionEvent{
				ev("u1", "b1", core.EventRead),
				ev("u1", "b1", core.EventReview),
				ev("u1", "b2", core.EventBookmarkAdd),
			},
			want:      map[[2]string]float64{{"u1", "b1"}: 5.0, {"u1", "b2"}: 1.0},
			wantUsers: []string{"u1"},
			wantItems: []string{"b1", "b2"},
		},
		{
			name: "白名单外事件与空 item 被丢弃",
			events: []core.InteractionEvent{
				ev("u1", "", core.EventLogin),
				ev("u2", "b9", core.EventPreferencesUpdate),
				ev("u2", "", core.EventRead),
				ev("u2", "b3", core.EventPageTurn),
				ev("u2", "b3", core.EventPageTurn),
				ev("u1", "b3", core.EventLogout),
			},
			want:      map[[2]string]float64{{"u2", "b3"}: 2.0},
			wantUsers: []string{"u2"},
			wantItems: []string{"b3"},
			dropped:   4,
		},
		{
			name: "首次出现顺序",
			events: []core.InteractionEvent{
				ev("u3", "b2", core.EventRead),
				ev("u1", "b1", core.EventRead),
				ev("u3", "b1", core.EventReview),
				ev("u2", "b3", core.EventRead),
			},
			want: map[[2]string]float64{
				{"u3", "b2"}: 2, {"u1", "b1"}: 2, {"u3", "b1"}: 3, {"u2", "b3"}: 2,
			},
			wantUsers: []string{"u3", "u1", "u2"},
			wantItems: []string{"b2", "b1", "b3"},
		},
		{
			name:   "空输入",
			events: nil,
			want:   map[[2]string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewBuilder().Build(tt.events)

			if len(set.Interactions) != len(tt.want) {
				t.Fatalf("interactions = %d, want %d", len(set.Interactions), len(tt.want))
			}
			for _, wi := range set.Interactions {
				w, ok := tt.want[[2]string{wi.UserID, wi.ItemID}]
				if !ok {
					t.Errorf("unexpected pair (%s,%s)", wi.UserID, wi.ItemID)
					continue
				}
				if wi.Weight != w {
					t.Errorf("(%s,%s) weight = %v, want %v", wi.UserID, wi.ItemID, wi.Weight, w)
				}
			}
			if !equalStrings(set.UserIDs, tt.wantUsers) {
				t.Errorf("UserIDs = %v, want %v", set.UserIDs, tt.wantUsers)
			}
			if !equalStrings(set.ItemIDs, tt.wantItems) {
				t.Errorf("ItemIDs = %v, want %v", set.ItemIDs, tt.wantItems)
			}
			if set.Dropped != tt.dropped {
				t.Errorf("Dropped = %d, want %d", set.Dropped, tt.dropped)
			}
		})
	}
}

// 任意 (user, item) 的权重等于过滤后各事件权重之和。
func TestBuilder_WeightSumMatchesEvents(t *testing.T) {
	types := []core.EventType{
		core.EventRead, core.EventReview, core.EventPageTurn, core.EventBookmarkAdd,
		core.EventLogin, core.EventLogout, "unknown",
	}
	users := []string{"u1", "u2", "u3"}
	items := []string{"b1", "b2", "b3", "b4"}

	var events []core.InteractionEvent
	for i := 0; i < 500; i++ {
		events = append(events, ev(users[i%3], items[(i*7)%4], types[(i*5)%len(types)]))
	}

	b := NewBuilder()
	want := make(map[[2]string]float64)
	for _, e := range events {
		if w, ok := b.Weight(e.EventType); ok {
			want[[2]string{e.UserID, e.ItemID}] += w
		}
	}

	set := b.Build(events)
	if len(set.Interactions) != len(want) {
		t.Fatalf("interactions = %d, want %d", len(set.Interactions), len(want))
	}
	for _, wi := range set.Interactions {
		if wi.Weight < 0 {
			t.Errorf("negative weight for (%s,%s)", wi.UserID, wi.ItemID)
		}
		if got, exp := wi.Weight, want[[2]string{wi.UserID, wi.ItemID}]; got != exp {
			t.Errorf("(%s,%s) weight = %v, want %v", wi.UserID, wi.ItemID, got, exp)
		}
	}
}

func TestBuilder_CustomWeights(t *testing.T) {
	b := NewBuilder(WithWeight(core.EventPageTurn, 0.5), WithWeight(core.EventRead, -1))
	set := b.Build([]core.InteractionEvent{
		ev("u1", "b1", core.EventPageTurn),
		ev("u1", "b1", core.EventRead),
	})
	if len(set.Interactions) != 1 || set.Interactions[0].Weight != 0.5 {
		t.Errorf("interactions = %+v, want single weight 0.5", set.Interactions)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
