package model

import "fmt"

// IndexMaps 是外部 user_id / item_id 到矩阵行列下标的双射。
// 每次训练从交互表中的去重 ID（首次出现顺序）重新构建，不跨训练复用，也不单独持久化。
type IndexMaps struct {
	UserIDs []string
	ItemIDs []string

	users map[string]int
	items map[string]int
}

// NewIndexMaps 按给定顺序建立映射；ID 重复时返回错误。
func NewIndexMaps(userIDs, itemIDs []string) (*IndexMaps, error) {
	users, err := indexOf(userIDs)
	if err != nil {
		return nil, fmt.Errorf("user index: %w", err)
	}
	items, err := indexOf(itemIDs)
	if err != nil {
		return nil, fmt.Errorf("item index: %w", err)
	}
	return &IndexMaps{UserIDs: userIDs, ItemIDs: itemIDs, users: users, items: items}, nil
}

func indexOf(ids []string) (map[string]int, error) {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := m[id]; ok {
			return nil, fmt.Errorf("duplicate id %q", id)
		}
		m[id] = i
	}
	return m, nil
}

// User 返回用户行号
func (m *IndexMaps) User(id string) (int, bool) {
	i, ok := m.users[id]
	return i, ok
}

// Item 返回物品列号
func (m *IndexMaps) Item(id string) (int, bool) {
	i, ok := m.items[id]
	return i, ok
}

// NumUsers 用户数
func (m *IndexMaps) NumUsers() int { return len(m.UserIDs) }

// NumItems 物品数
func (m *IndexMaps) NumItems() int { return len(m.ItemIDs) }
