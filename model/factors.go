package model

import (
	"fmt"
	"time"

	"github.com/osako110/Recommend/core"
)

// LatentFactorModel 是训练产出的隐因子模型。训练完成后只读。
type LatentFactorModel struct {
	Factors int
	Users   *Dense // num_users × F，行顺序与 IndexMaps.UserIDs 一致
	Items   *Dense // num_items × F，行顺序与 IndexMaps.ItemIDs 一致

	Params    Hyperparams
	Loss      float64
	TrainedAt time.Time
}

// NumUsers 用户行数
func (m *LatentFactorModel) NumUsers() int { return m.Users.Rows }

// NumItems 物品行数
func (m *LatentFactorModel) NumItems() int { return m.Items.Rows }

// UserTable 把用户因子与 user_id 关联为可寻址的因子表
func (m *LatentFactorModel) UserTable(ids []string) (*core.FactorTable, error) {
	return table("user", ids, m.Users)
}

// ItemTable 把物品因子与 item_id 关联为可寻址的因子表
func (m *LatentFactorModel) ItemTable(ids []string) (*core.FactorTable, error) {
	return table("item", ids, m.Items)
}

func table(kind string, ids []string, d *Dense) (*core.FactorTable, error) {
	if len(ids) != d.Rows {
		return nil, fmt.Errorf("%s factors: %d ids for %d rows", kind, len(ids), d.Rows)
	}
	return core.NewFactorTable(ids, d.Cols, d.Data)
}

// Validate 检查模型形状是否自洽
func (m *LatentFactorModel) Validate() error {
	if m.Users == nil || m.Items == nil {
		return fmt.Errorf("model: missing factor matrices")
	}
	for name, d := range map[string]*Dense{"users": m.Users, "items": m.Items} {
		if d.Cols != m.Factors {
			return fmt.Errorf("model: %s has %d columns, want %d", name, d.Cols, m.Factors)
		}
		if len(d.Data) != d.Rows*d.Cols {
			return fmt.Errorf("model: %s has %d values, want %d", name, len(d.Data), d.Rows*d.Cols)
		}
	}
	return nil
}
