package validators

import "go.mongodb.org/mongo-driver/bson"

// NotificationValidator covers the per-recipient inbox documents. The
// category arrays are optional since a recipient may never get one.
var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 3,
			},
			"notifications":       stringArray,
			"reserveNotification": stringArray,
			"releaseNotification": stringArray,
			"cancelNotification":  stringArray,
			"timestamps":          dateArray,
		},
	},
}
