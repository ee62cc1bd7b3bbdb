// Package events carries card lifecycle notifications from the services to
// background consumers without the services knowing who listens.
//
// The capture service emits TypeCardCaptured and the review service emits
// TypeCardReviewed. The task package subscribes to captures to schedule
// meaning enrichment.
package events
