package utils

// Label 记录物品在链路中的来源与处理痕迹（召回源、合并来源、过滤原因等），随物品透传到结果。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / merge / filter / postprocess
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积。
// 完全相同的 Label 重复写入时保持不变，同一物品被多路召回时不会产生 "als|als"。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" || existing == incoming {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "", incoming.Source == existing.Source:
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
