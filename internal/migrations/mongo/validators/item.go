package validators

import "go.mongodb.org/mongo-driver/bson"

var ItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"createdBy",
			"sharedWith",
			"version",
			"availability",
			"inUseBy",
			"scheduledBy",
			"availabilityStartTime",
			"availabilityScheduledChangeTime",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"createdBy": bson.M{
				"bsonType":  "string",
				"minLength": 3,
			},

			"sharedWith":  stringArray,
			"inUseBy":     stringArray,
			"scheduledBy": stringArray,

			"version": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"availability": bson.M{"bsonType": "bool"},

			"availabilityChangeTime":              nullableDate,
			"nextAvailabilityScheduledChangeTime": nullableDate,
			"nextWakeAt":                          nullableDate,

			"availabilityStartTime":           dateArray,
			"availabilityScheduledChangeTime": dateArray,

			"needsImmediateUpdate":      bson.M{"bsonType": "bool"},
			"needsScheduledStartUpdate": bson.M{"bsonType": "bool"},
			"needsScheduledEndUpdate":   bson.M{"bsonType": "bool"},

			"createdAt": bson.M{"bsonType": "date"},
		},
	},
}

var (
	stringArray = bson.M{
		"bsonType": "array",
		"items":    bson.M{"bsonType": "string"},
	}
	dateArray = bson.M{
		"bsonType": "array",
		"items":    bson.M{"bsonType": "date"},
	}
	nullableDate = bson.M{
		"bsonType": []string{"date", "null"},
	}
)
