package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/utils"
)

type ruleSetRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.TestViolationRuleSet, *gorm.DB]
}

func NewRuleSetRepository(db *gorm.DB) *ruleSetRepository {
	return &ruleSetRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.TestViolationRuleSet](db),
	}
}

func (r *ruleSetRepository) ReadByTestID(testID uuid.UUID) (models.TestViolationRuleSet, error) {
	var ruleSet models.TestViolationRuleSet
	err := r.db.Preload("Rules").Where("test_id = ?", testID).First(&ruleSet).Error
	return ruleSet, err
}

// UpsertForTest replaces the rule set of a test atomically. The old rules are
// dropped with the rule set row via the cascading foreign key.
func (r *ruleSetRepository) UpsertForTest(ruleSet *models.TestViolationRuleSet) error {
	return r.Transaction(func(tx *gorm.DB) error {
		var existing models.TestViolationRuleSet
		err := tx.Where("test_id = ?", ruleSet.TestID).First(&existing).Error
		if err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(ruleSet).Error
	})
}
