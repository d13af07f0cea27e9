package consts

const (
	RankingCacheKey      = "ranking:detail:"
	RankingGenerationKey = "ranking:gen:"
	SocialRepairDirtyKey = "social:repair:dirty"
)

const (
	RepairJobLock = "lock:social:repair"
)
