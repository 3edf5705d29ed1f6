// Package snapshot provides snapshot management for the record store.
//
// A snapshot is a full dump of every collection, written as one JSON
// document into a hidden directory next to the data path:
//
//	.records/20250601_093012.123456-0001.json
//	{
//	  "location": [
//	    {"id": 0, "lat": 52.37, "long": 4.895},
//	    {"id": 1, "lat": 40.71, "long": -74.0, "name": "NYC"}
//	  ]
//	}
//
// File names sort in write order. Loading reads the greatest name and
// undo deletes it, so the following load sees the snapshot before it.
//
// Recovery Process:
//
//  1. List snapshot files, newest first
//  2. Decode and hand the state to the caller's restore function
//  3. On a decode or restore failure, fall back to the next older file
package snapshot
