package classify

// TopTier 只保留与第一名得分完全相等的前缀
//
// 得分按精确相等比较，不带容差。第一项总是保留。
func TopTier(results []Result) []Result {
	if len(results) == 0 {
		return []Result{}
	}

	best := results[0].Score
	out := []Result{results[0]}
	for _, r := range results[1:] {
		if r.Score != best {
			break
		}
		out = append(out, r)
	}
	return out
}
