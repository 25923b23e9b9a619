package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cellarworks/cellar-service/internal/domain"
	"github.com/cellarworks/cellar-service/pkg/cloudevents"
	"github.com/cellarworks/cellar-service/pkg/kafka"
	appMongo "github.com/cellarworks/cellar-service/pkg/mongodb"
	"github.com/cellarworks/cellar-service/pkg/outbox"
	outboxMongo "github.com/cellarworks/cellar-service/pkg/outbox/mongodb"
)

// ReorgPlanRepository persists reorg plans in MongoDB
type ReorgPlanRepository struct {
	collection   *appMongo.InstrumentedCollection
	client       *appMongo.InstrumentedClient
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

// NewReorgPlanRepository creates a new ReorgPlanRepository
func NewReorgPlanRepository(client *appMongo.InstrumentedClient, eventFactory *cloudevents.EventFactory) *ReorgPlanRepository {
	repo := &ReorgPlanRepository{
		collection:   client.Collection(plansCollection),
		client:       client,
		outboxRepo:   outboxMongo.NewOutboxRepository(client),
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ReorgPlanRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "planId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	r.collection.Underlying().Indexes().CreateMany(ctx, indexes)
}

// planUpdateDoc flattens a plan into a $set document. _id is immutable
// in MongoDB, so it is left out and the upsert keys plans by planId only.
func planUpdateDoc(plan *domain.ReorgPlan) (bson.M, error) {
	raw, err := bson.Marshal(plan)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}

// Save persists a plan with its domain events in a single transaction
func (r *ReorgPlanRepository) Save(ctx context.Context, plan *domain.ReorgPlan) error {
	plan.UpdatedAt = time.Now().UTC()

	doc, err := planUpdateDoc(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal reorg plan: %w", err)
	}

	err = r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		opts := options.Update().SetUpsert(true)
		filter := bson.M{"planId": plan.PlanID}
		update := bson.M{"$set": doc}

		if _, err := r.collection.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return fmt.Errorf("failed to save reorg plan: %w", err)
		}

		domainEvents := plan.GetDomainEvents()
		if len(domainEvents) > 0 {
			outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))

			for _, event := range domainEvents {
				var cloudEvent *cloudevents.CellarCloudEvent
				switch e := event.(type) {
				case *domain.SortPlanComputedEvent:
					cloudEvent = r.eventFactory.CreateSortPlanComputedEvent(sessCtx, e.PlanID,
						e.StayInPlace, plan.Stats.DirectMoves, e.Swaps, e.Cycles, e.TotalMoves, e.Unresolved)
				case *domain.PlanExecutedEvent:
					cloudEvent = r.eventFactory.CreatePlanExecutedEvent(sessCtx, e.PlanID,
						e.TotalMoves, e.TotalMoves, e.TotalMoves, e.ExecutedAt)
				default:
					cloudEvent = r.eventFactory.CreateEvent(sessCtx, event.EventType(), "plan/"+plan.PlanID, event)
					cloudEvent.PlanID = plan.PlanID
				}

				outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
					plan.PlanID,
					"ReorgPlan",
					kafka.Topics.LayoutEvents,
					cloudEvent,
				)
				if err != nil {
					return fmt.Errorf("failed to create outbox event: %w", err)
				}

				outboxEvents = append(outboxEvents, outboxEvent)
			}

			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		plan.ClearDomainEvents()
		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// FindByID retrieves a plan by its PlanID
func (r *ReorgPlanRepository) FindByID(ctx context.Context, planID string) (*domain.ReorgPlan, error) {
	var plan domain.ReorgPlan
	err := r.collection.FindOne(ctx, bson.M{"planId": planID}).Decode(&plan)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// FindRecent retrieves the most recently created plans
func (r *ReorgPlanRepository) FindRecent(ctx context.Context, limit int) ([]*domain.ReorgPlan, error) {
	return r.findPlans(ctx, bson.M{}, limit)
}

// FindByStatus retrieves plans by status
func (r *ReorgPlanRepository) FindByStatus(ctx context.Context, status domain.PlanStatus, limit int) ([]*domain.ReorgPlan, error) {
	return r.findPlans(ctx, bson.M{"status": status}, limit)
}

func (r *ReorgPlanRepository) findPlans(ctx context.Context, filter bson.M, limit int) ([]*domain.ReorgPlan, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []*domain.ReorgPlan
	err = cursor.All(ctx, &plans)
	return plans, err
}
