package consts

const (
	MimePrefixImage = "image/"
)

const (
	// EdgeSeparator 脏集合成员格式: followerID|targetID
	EdgeSeparator = "|"
)
