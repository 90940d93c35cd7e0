package validators

import (
	"context"
	"testing"

	"github.com/spboyer/hirebench/internal/textnorm"
	"github.com/stretchr/testify/require"
)

func TestTerraform_MissingDirectory(t *testing.T) {
	checks := NewTerraformValidator(defaultDeps()).Validate(context.Background(), t.TempDir(), false)

	require.Len(t, checks, 1)
	require.Equal(t, "Terraform directory exists", checks[0].Name)
	require.Equal(t, 5, checks[0].MaxPoints)
	require.False(t, checks[0].Passed)
}

func TestTerraform_HCLParsing(t *testing.T) {
	t.Run("syntax error is reported per file", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"terraform/main.tf":      "resource \"aws_vpc\" \"main\" {\n  cidr_block = \"10.0.0.0/16\"\n",
			"terraform/variables.tf": "variable \"region\" {\n  default = \"us-east-1\"\n}\n",
		})

		checks := NewTerraformValidator(defaultDeps()).Validate(context.Background(), root, true)
		c := findCheck(t, checks, "HCL parsing")
		require.False(t, c.Passed)
		require.Equal(t, "Parse errors in: main.tf", c.Details)
	})

	t.Run("comment-only file is not a parse error", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"terraform/cost_optimization.tf": "# TODO: add your cost optimization resources here\n# { unbalanced\n",
		})

		checks := NewTerraformValidator(defaultDeps()).Validate(context.Background(), root, true)
		require.True(t, findCheck(t, checks, "HCL parsing").Passed)
		require.False(t, findCheck(t, checks, "Plan structure (resource blocks exist)").Passed)
	})

	t.Run("no tf files", func(t *testing.T) {
		root := writeTree(t, map[string]string{"terraform/README.md": "nothing yet"})

		checks := NewTerraformValidator(defaultDeps()).Validate(context.Background(), root, true)
		c := findCheck(t, checks, "HCL parsing")
		require.False(t, c.Passed)
		require.Equal(t, "No .tf files found", c.Details)
	})
}

func TestTerraform_SSHCheck(t *testing.T) {
	open := `
resource "aws_security_group" "bastion" {
  ingress {
    from_port   = 22
    to_port     = 22
    protocol    = "tcp"
    cidr_blocks = ["0.0.0.0/0"]
  }
}
`
	c := sshCheck(textnorm.Code(open, textnorm.HCL))
	require.False(t, c.Passed)
	require.Contains(t, c.Details, "restrict to management CIDR")

	t.Run("commented-out rule is ignored", func(t *testing.T) {
		src := `
resource "aws_security_group" "bastion" {
  # ingress {
  #   from_port   = 22
  #   to_port     = 22
  #   cidr_blocks = ["0.0.0.0/0"]
  # }
}
`
		require.True(t, sshCheck(textnorm.Code(src, textnorm.HCL)).Passed)
	})

	t.Run("other ports open to the world are fine", func(t *testing.T) {
		src := `
ingress {
  from_port   = 2222
  to_port     = 2222
  cidr_blocks = ["0.0.0.0/0"]
}
`
		require.True(t, sshCheck(textnorm.Code(src, textnorm.HCL)).Passed)
	})
}

func TestTerraform_VPCAndEKS(t *testing.T) {
	vpc := vpcCheck(`resource "aws_vpc" "main" {}
resource "aws_subnet" "public" {}
resource "aws_internet_gateway" "igw" {}`)
	require.False(t, vpc.Passed)
	require.Equal(t, "VPC components found: 2/4 (VPC, subnets, NAT, IGW)", vpc.Details)

	eks := eksCheck(`resource "aws_eks_cluster" "main" {}
resource "aws_eks_node_group" "ng" {}`)
	require.False(t, eks.Passed)
	require.Equal(t, "EKS components: cluster=yes, node_group=yes, iam=no", eks.Details)
}

func TestTerraform_CostChecks(t *testing.T) {
	template := `# TODO: Cost Optimization
# ---
# Analyze the monthly cost report and propose savings.
# Hint: consider lifecycle policies, spot/mixed instances and right-sizing.
# Requirements:
#   - implement at least two cost-saving measures
#   - explain the trade-offs of each
`
	require.False(t, costOptimizationCheck(template).Passed)

	analysis := costAnalysisCheck(template)
	require.False(t, analysis.Passed)
	require.Equal(t, 0, analysis.PointsAwarded)
	require.Equal(t, "Cost analysis depth: 0/3", analysis.Details)

	t.Run("commented-out resources earn nothing", func(t *testing.T) {
		src := `# resource "aws_autoscaling_group" "spot" {
#   mixed_instances_policy {}
# }
# resource "aws_s3_bucket_lifecycle_configuration" "logs" {}
`
		c := costOptimizationCheck(src)
		require.False(t, c.Passed)
		require.Equal(t, "No cost optimization measures found", c.Details)
	})
}
