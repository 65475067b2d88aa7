package badgerstore

// Key layout:
//
//	user:<id>                      user JSON
//	user:idx:email:<email>         user id
//	tale:<id>                      tale JSON
//	tale:lkp:author:<author>:<id>  empty
//	tale:lkp:visibility:<v>:<id>   empty
//	like:u:<user>:<tale>           like timestamp
//	like:t:<tale>:<user>           like timestamp
const (
	userPrefix = "user:"
	talePrefix = "tale:"

	likeByUserPrefix = "like:u:"
	likeByTalePrefix = "like:t:"

	indexSegment  = "idx:"
	lookupSegment = "lkp:"
)

func indexKey(prefix, name, value string) []byte {
	return []byte(prefix + indexSegment + name + ":" + value)
}

func lookupKey(prefix, name, value, id string) []byte {
	return []byte(prefix + lookupSegment + name + ":" + value + ":" + id)
}

func lookupPrefix(prefix, name, value string) []byte {
	return []byte(prefix + lookupSegment + name + ":" + value + ":")
}

func likeUserKey(userID, taleID string) []byte {
	return []byte(likeByUserPrefix + userID + ":" + taleID)
}

func likeTaleKey(taleID, userID string) []byte {
	return []byte(likeByTalePrefix + taleID + ":" + userID)
}

func likesOfUserPrefix(userID string) []byte {
	return []byte(likeByUserPrefix + userID + ":")
}

func likesOfTalePrefix(taleID string) []byte {
	return []byte(likeByTalePrefix + taleID + ":")
}
